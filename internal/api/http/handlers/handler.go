package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karyalaya/patra-service/internal/auth"
	"github.com/karyalaya/patra-service/internal/domain"
)

func authPrincipal(c *fiber.Ctx) (*domain.User, bool) {
	return auth.PrincipalFromContext(c)
}
