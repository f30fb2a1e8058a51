package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/devices"
	"github.com/recipeserver/cloudcmd/internal/session"
	"github.com/recipeserver/cloudcmd/internal/wire"
)

// Tokens is the login response.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for access and refresh tokens.
func (c *Client) Login(ctx context.Context, username, password string) (Tokens, error) {
	var t Tokens
	in := map[string]string{"username": username, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/token/", "login", in, &t); err != nil {
		return Tokens{}, err
	}
	if t.Access == "" {
		return Tokens{}, fmt.Errorf("login: response has no access token")
	}
	return t, nil
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (session.Profile, error) {
	var p session.Profile
	err := c.doJSON(ctx, http.MethodGet, "/auth/profile/", "profile", nil, &p)
	return p, err
}

// ListDeviceModels returns every device model the server knows, across all
// result pages.
func (c *Client) ListDeviceModels(ctx context.Context) ([]devices.Model, error) {
	return listAll[devices.Model](ctx, c, "/device-models/", nil, "list device models")
}

// Author is the recipe owner as embedded in recipe responses.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Recipe is the subset of a server recipe this tool reads.
type Recipe struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Author      Author `json:"author"`
	UpdatedAt   string `json:"updated_at"`
	// CloudCommands is kept raw; it may be in either wire format.
	CloudCommands json.RawMessage `json:"cloud_commands"`
}

// RecipeInput is the body of a create or update call.
type RecipeInput struct {
	Title         string
	Description   string
	CloudCommands wire.Submission
	// Multipart sends the body as multipart/form-data with cloud_commands as
	// a JSON string field.
	Multipart bool
}

// RecipeFilter narrows ListRecipes. Author "me" selects the caller's own
// recipes; Model selects recipes compatible with a device model identifier.
type RecipeFilter struct {
	Author string
	Model  string
}

func recipePath(id int64, suffix string) string {
	return "/recipes/" + strconv.FormatInt(id, 10) + "/" + suffix
}

// ListRecipes returns all recipes matching f.
func (c *Client) ListRecipes(ctx context.Context, f RecipeFilter) ([]Recipe, error) {
	q := url.Values{}
	if f.Author != "" {
		q.Set("author", f.Author)
	}
	if f.Model != "" {
		q.Set("model", f.Model)
	}
	return listAll[Recipe](ctx, c, "/recipes/", q, "list recipes")
}

// GetRecipe fetches one recipe.
func (c *Client) GetRecipe(ctx context.Context, id int64) (Recipe, error) {
	var r Recipe
	err := c.doJSON(ctx, http.MethodGet, recipePath(id, ""), "get recipe", nil, &r)
	return r, err
}

// CreateRecipe submits a new recipe.
func (c *Client) CreateRecipe(ctx context.Context, in RecipeInput) (Recipe, error) {
	return c.submitRecipe(ctx, http.MethodPost, "/recipes/create/", "create recipe", in)
}

// UpdateRecipe replaces an existing recipe's submitted fields.
func (c *Client) UpdateRecipe(ctx context.Context, id int64, in RecipeInput) (Recipe, error) {
	return c.submitRecipe(ctx, http.MethodPut, recipePath(id, "update/"), "update recipe", in)
}

// DeleteRecipe removes a recipe owned by the caller.
func (c *Client) DeleteRecipe(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, recipePath(id, "delete/"), "delete recipe", nil, nil)
}

// SubmitForReview moves a recipe into the review queue.
func (c *Client) SubmitForReview(ctx context.Context, id int64) (Recipe, error) {
	var r Recipe
	err := c.doJSON(ctx, http.MethodPut, recipePath(id, "submit-review/"), "submit review", nil, &r)
	return r, err
}

// CancelReview withdraws a recipe from the review queue.
func (c *Client) CancelReview(ctx context.Context, id int64) (Recipe, error) {
	var r Recipe
	err := c.doJSON(ctx, http.MethodPut, recipePath(id, "cancel-review/"), "cancel review", nil, &r)
	return r, err
}

// ModelCommands is the server's command payload for one recipe on one device
// model. Commands holds a single legacy command object or a list of them.
type ModelCommands struct {
	Model    string          `json:"model"`
	RecipeID int64           `json:"recipe_id"`
	Commands json.RawMessage `json:"commands"`
}

// CommandSets decodes the payload as a legacy command set for Model.
func (m ModelCommands) CommandSets() ([]commandset.CommandSet, error) {
	cmds := bytes.TrimSpace(m.Commands)
	if len(cmds) == 0 || bytes.Equal(cmds, []byte("null")) {
		cmds = []byte("[]")
	}
	if cmds[0] == '{' {
		cmds = append(append([]byte("["), cmds...), ']')
	}
	elem, err := json.Marshal(struct {
		Model    string          `json:"model"`
		Commands json.RawMessage `json:"commands"`
	}{m.Model, cmds})
	if err != nil {
		return nil, err
	}
	return wire.Decode(elem)
}

// RecipeCommands fetches the commands of recipe id for one device model.
func (c *Client) RecipeCommands(ctx context.Context, id int64, model string) (ModelCommands, error) {
	var m ModelCommands
	path := recipePath(id, "commands/") + "?" + url.Values{"model": {model}}.Encode()
	err := c.doJSON(ctx, http.MethodGet, path, "recipe commands", nil, &m)
	return m, err
}

func (c *Client) submitRecipe(ctx context.Context, method, path, op string, in RecipeInput) (Recipe, error) {
	var r Recipe
	if !in.Multipart {
		body := struct {
			Title         string            `json:"title,omitempty"`
			Description   string            `json:"description,omitempty"`
			CloudCommands []wire.CommandSet `json:"cloud_commands"`
		}{in.Title, in.Description, in.CloudCommands.CloudCommands}
		err := c.doJSON(ctx, method, path, op, body, &r)
		return r, err
	}

	cmds, err := in.CloudCommands.Marshal()
	if err != nil {
		return r, fmt.Errorf("%s: encode cloud_commands: %w", op, err)
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"cloud_commands", string(cmds)},
	} {
		if f[1] == "" && f[0] != "cloud_commands" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return r, fmt.Errorf("%s: write %s: %w", op, f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return r, err
	}
	req, err := c.newRequest(ctx, method, path, &buf, mw.FormDataContentType())
	if err != nil {
		return r, err
	}
	err = c.do(req, op, &r)
	return r, err
}
