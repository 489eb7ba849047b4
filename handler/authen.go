package handler

import (
	"cinema_booking/constants"
	"cinema_booking/helper"
	"cinema_booking/model"
	"cinema_booking/utils"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Login đăng nhập cho staff/admin, set access token vào HTTPOnly cookie.
func Login(c *fiber.Ctx) error {
	input := c.Locals("loginInput").(model.LoginInput)

	account, err := helper.GetAccountByUsername(input.Username)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if account == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.INVALID_USERNAME, errors.New("username not exists"))
	}

	if !helper.CheckPasswordHash(input.Password, account.Password) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.INVALID_PASSWORD, errors.New("password does not match username"))
	}

	if !account.Active {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.ACCOUNT_NOT_ACTIVE, errors.New("active false"))
	}

	tokenClaim := model.TokenClaim{
		AccountId: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}
	token, err := helper.GenerateAccessToken(tokenClaim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false, // nếu deploy HTTPS thì true
		Path:     "/",
	})

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"accessToken": token,
		"account": fiber.Map{
			"id":       account.ID,
			"username": account.Username,
			"role":     account.Role,
		},
	})
}

// Logout xoá cookie phiên.
func Logout(c *fiber.Ctx) error {
	c.ClearCookie("access_token")
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{"loggedOut": true})
}
