package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateRegister(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	user, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	if fields := validateLogin(&req); len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	pair, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, map[string]string{"refresh_token": "required"})
		return
	}
	pair, err := s.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		badRequest(c, map[string]string{"refresh_token": "required"})
		return
	}
	if err := s.users.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(c *gin.Context) {
	if err := s.users.LogoutAll(c.Request.Context(), currentUserID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		badRequest(c, map[string]string{"token": "required"})
		return
	}
	user, err := s.users.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		badRequest(c, map[string]string{"email": "required"})
		return
	}
	if err := s.users.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		writeError(c, err)
		return
	}
	// Accepted either way; the response must not reveal whether the
	// address is registered.
	c.Status(http.StatusAccepted)
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, map[string]string{"body": "malformed JSON"})
		return
	}
	fields := map[string]string{}
	if req.Token == "" {
		fields["token"] = "required"
	}
	validatePassword(fields, "new_password", req.NewPassword)
	if len(fields) > 0 {
		badRequest(c, fields)
		return
	}
	if err := s.users.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
