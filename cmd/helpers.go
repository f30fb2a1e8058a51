package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/recipeserver/cloudcmd/internal/api"
	"github.com/recipeserver/cloudcmd/internal/commandset"
	"github.com/recipeserver/cloudcmd/internal/db"
	"github.com/recipeserver/cloudcmd/internal/devices"
	"github.com/recipeserver/cloudcmd/internal/registry"
	"github.com/recipeserver/cloudcmd/internal/sanitize"
	"github.com/recipeserver/cloudcmd/internal/session"
)

func openRepo() (*registry.Repository, error) {
	dbConn, err := db.InitDB()
	if err != nil {
		return nil, err
	}
	return registry.NewRepository(dbConn, logger), nil
}

// updateDraft applies actions to the named draft and saves the result as one
// new version.
func updateDraft(name string, actions ...commandset.Action) (commandset.Session, error) {
	r, err := openRepo()
	if err != nil {
		return commandset.Session{}, err
	}
	defer func() { _ = r.Close() }()

	d, err := r.MustGetDraft(name)
	if err != nil {
		return commandset.Session{}, err
	}
	next, err := commandset.ReduceAll(d.Session(), actions...)
	if err != nil {
		return commandset.Session{}, err
	}
	if err := r.SaveDraft(d.ID, next); err != nil {
		return commandset.Session{}, err
	}
	logger.Debug("draft updated", zap.String("draft", name), zap.Int("actions", len(actions)))
	return next, nil
}

func newClient(authenticated bool) (*api.Client, error) {
	opts := []api.Option{
		api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		api.WithLogger(logger),
	}
	if authenticated {
		s, err := session.Load()
		if err != nil {
			if errors.Is(err, session.ErrNotLoggedIn) {
				return nil, fmt.Errorf("%w; run 'cloudcmd login' first", err)
			}
			return nil, err
		}
		if s.Expired(time.Now()) {
			return nil, errors.New("session expired; run 'cloudcmd login' again")
		}
		opts = append(opts, api.WithToken(s.Access))
	}
	return api.NewClient(cfg.API.BaseURL, opts...), nil
}

// modelChecker returns a checker over the cached device models, or nil when
// nothing has been cached yet.
func modelChecker(dbCache *devices.Cache) (commandset.ModelChecker, error) {
	models, _, err := dbCache.List()
	if err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, nil
	}
	return devices.NewChecker(models), nil
}

func parseStepNo(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid step number %q", s)
	}
	return n, nil
}

// parseRecipeID accepts the positive integer ids the server routes use.
func parseRecipeID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid recipe id %q", s)
	}
	return id, nil
}

func printSets(w io.Writer, sets []commandset.CommandSet) {
	if len(sets) == 0 {
		fmt.Fprintln(w, "(no command sets)")
		return
	}
	for _, cs := range sets {
		hex := cs.HexCommand
		if hex == "" {
			hex = "-"
		}
		fmt.Fprintf(w, "%s\thex=%s\t%d step(s)\n", sanitize.Display(cs.Model()), hex, len(cs.Steps))
		for _, s := range cs.Steps {
			fmt.Fprintf(w, "  %d. %s\n", s.No, sanitize.Display(s.Description))
		}
	}
}

func warnDropped(dropped []string) {
	if len(dropped) > 0 {
		logger.Warn("only the first command set is submitted; others left out", zap.Strings("dropped", dropped))
	}
}
