package account

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/accounts"
	"github.com/hoardhq/hoard/internal/server/handlers/api"
	"github.com/hoardhq/hoard/internal/utils"
)

type AccountHandler struct {
	accounts   *accounts.AccountService
	inviteCode string
}

func New(accounts *accounts.AccountService, inviteCode string) *AccountHandler {
	return &AccountHandler{
		accounts:   accounts,
		inviteCode: inviteCode,
	}
}

func (h *AccountHandler) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("failed to bind json: %w", err))
		return
	}

	if h.inviteCode != "" &&
		subtle.ConstantTimeCompare([]byte(req.InviteCode), []byte(h.inviteCode)) != 1 {
		api.AbortWithError(ctx, http.StatusForbidden, api.CodeAccessDenied,
			errors.New("invalid invite code"))
		return
	}

	account, err := h.accounts.Create(ctx.Request.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrAccountExists):
			api.AbortWithError(ctx, http.StatusConflict, api.CodeAccountExists, err)
		case errors.Is(err, utils.ErrUsernameEmpty), errors.Is(err, utils.ErrUsernameInvalid):
			api.AbortWithError(ctx, http.StatusBadRequest, api.CodeAccountInvalidName, err)
		default:
			api.AbortWithError(ctx, http.StatusInternalServerError, api.CodeAccountCreateFailed, err)
		}
		return
	}

	ctx.PureJSON(http.StatusCreated, &SignupResponse{
		Username:  account.Username,
		Secret:    account.Secret,
		CreatedAt: account.CreatedAt,
	})
}
