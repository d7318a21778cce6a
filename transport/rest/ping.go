package rest

import "github.com/gofiber/fiber/v2"

func (that *handlers) Ping(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).SendString("pong")
}
