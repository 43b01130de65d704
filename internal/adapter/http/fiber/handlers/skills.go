package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/seu-repo/aura-core/internal/skill"
)

type SkillsHandler struct {
	registry *skill.Registry
}

func NewSkillsHandler(registry *skill.Registry) *SkillsHandler {
	return &SkillsHandler{registry: registry}
}

type skillSummary struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	RequiredSlots        []skill.SlotSpec `json:"required_slots"`
	OptionalSlots        []skill.SlotSpec `json:"optional_slots,omitempty"`
	ConfirmationRequired bool             `json:"confirmation_required"`
	Examples             []string         `json:"examples,omitempty"`
}

// List returns the catalog of registered skills. The set is fixed at
// startup, so clients may cache it.
func (h *SkillsHandler) List(c *fiber.Ctx) error {
	descriptors := h.registry.All()

	skills := make([]skillSummary, 0, len(descriptors))
	for _, d := range descriptors {
		skills = append(skills, skillSummary{
			Name:                 d.Name,
			Description:          d.Description,
			RequiredSlots:        d.RequiredSlots,
			OptionalSlots:        d.OptionalSlots,
			ConfirmationRequired: d.ConfirmationRequired,
			Examples:             d.Examples,
		})
	}

	return c.JSON(fiber.Map{"skills": skills})
}
