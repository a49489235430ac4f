package webfinger

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoardhq/hoard/internal/server/accounts"
	"github.com/hoardhq/hoard/internal/server/handlers/api"
)

const (
	storageRel       = "http://tools.ietf.org/id/draft-dejong-remotestorage"
	versionProp      = "http://remotestorage.io/spec/version"
	protocolDraft    = "draft-dejong-remotestorage-22"
	authEndpointProp = "http://tools.ietf.org/html/rfc6749#section-4.2"
)

type WebfingerHandler struct {
	accounts *accounts.AccountService
	baseURL  string
}

func New(accounts *accounts.AccountService, baseURL string) *WebfingerHandler {
	return &WebfingerHandler{
		accounts: accounts,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Resource describes where a user's storage root lives, in the JRD shape
// remoteStorage clients probe for.
type Resource struct {
	Subject string `json:"subject"`
	Links   []Link `json:"links"`
}

type Link struct {
	Rel        string            `json:"rel"`
	Href       string            `json:"href"`
	Properties map[string]string `json:"properties"`
}

func (h *WebfingerHandler) Lookup(ctx *gin.Context) {
	resource := ctx.Query("resource")
	if resource == "" {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			errors.New("`resource` query parameter is required"))
		return
	}

	acct, ok := strings.CutPrefix(resource, "acct:")
	if !ok {
		api.AbortWithError(ctx, http.StatusBadRequest, api.CodeInvalidRequest,
			fmt.Errorf("unsupported resource %q", resource))
		return
	}

	// the domain part is advisory; the username identifies the account
	username, _, _ := strings.Cut(acct, "@")
	if !h.accounts.Exists(ctx.Request.Context(), username) {
		api.AbortWithError(ctx, http.StatusNotFound, api.CodeAccountNotFound,
			fmt.Errorf("no account for %q", resource))
		return
	}

	ctx.PureJSON(http.StatusOK, &Resource{
		Subject: resource,
		Links: []Link{{
			Rel:  storageRel,
			Href: fmt.Sprintf("%s/storage/%s", h.baseURL, strings.ToLower(username)),
			Properties: map[string]string{
				versionProp:      protocolDraft,
				authEndpointProp: h.baseURL + "/auth/token",
			},
		}},
	})
}
