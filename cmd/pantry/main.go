// Command pantry is a CLI client for the pantry service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylab/pantry/internal/client"
	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
)

// ---- config/token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "pantry")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pantry")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{AccessToken: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

func dropToken() { _ = os.Remove(tokenPath()) }

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func printItems(items []model.Item, now time.Time) {
	type row struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
		Unit     string `json:"unit,omitempty"`
		Expires  string `json:"expires,omitempty"`
		Status   string `json:"status"`
	}
	rows := make([]row, 0, len(items))
	for _, it := range items {
		r := row{
			ID:       it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Unit:     it.Unit,
			Status:   string(it.Status(now)),
		}
		if it.ExpirationDate != nil {
			r.Expires = it.ExpirationDate.String()
		}
		rows = append(rows, r)
	}
	printJSON(rows)
}

func usage() {
	fmt.Fprintf(os.Stderr, `pantry CLI
Usage:
  pantry -addr URL <cmd> [args]

Commands:
  version
  register   -u <username> -p <password>
  login      -u <username> -p <password>            (saves token)
  logout
  list       [-search s] [-sort name|expiration_date|created_at|quantity|added_at]
             [-order asc|desc] [-page n] [-page-size n] [-expiring]
  add        -name <name> [-qty n] [-unit u] [-expires YYYY-MM-DD]
  edit       -id <uuid> [-name n] [-qty n] [-unit u] [-expires YYYY-MM-DD]
  rm         -id <uuid>
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// newStack wires the session, transport and local state for one invocation.
func newStack(addr, token string) (*client.Session, *client.ItemView, *client.Engine) {
	session := client.NewSession(func() {
		dropToken()
		fmt.Fprintln(os.Stderr, "session expired, login required")
	}, nil)
	if token != "" {
		session.SetToken(token)
	}
	api := client.NewAPIClient(addr, session, nil)
	view := client.NewItemView(api, nil)
	engine := client.NewEngine(api, view, view.RequestRefresh, nil)
	return session, view, engine
}

// main dispatches subcommands against the HTTP API.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	if *debug {
		logger, _ := zap.NewDevelopment()
		defer func() { _ = logger.Sync() }()
		zap.ReplaceGlobals(logger)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("pantry %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		api := client.NewAPIClient(*addr, client.NewSession(nil, nil), nil)
		uid, err := api.Register(ctx, *u, *p)
		if err != nil {
			fail(err)
		}
		fmt.Println(uid)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *u == "" || *p == "" {
			fmt.Fprintln(os.Stderr, "need -u and -p")
			os.Exit(1)
		}

		api := client.NewAPIClient(*addr, client.NewSession(nil, nil), nil)
		res, err := api.Login(ctx, *u, *p)
		if err != nil {
			fail(err)
		}
		if err := saveToken(res.AccessToken, res.ExpiresAt); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "logout":
		dropToken()
		fmt.Println("ok")

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		search := fs.String("search", "", "name substring filter")
		sortBy := fs.String("sort", "", "sort key")
		order := fs.String("order", "", "asc or desc")
		page := fs.Int("page", 0, "page number")
		pageSize := fs.Int("page-size", 0, "items per page")
		expiring := fs.Bool("expiring", false, "only items expiring soon")
		_ = fs.Parse(flag.Args()[1:])

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		_, view, _ := newStack(*addr, token)
		err = view.Load(ctx, client.ListParams{
			Page:         *page,
			PageSize:     *pageSize,
			Search:       *search,
			SortBy:       model.SortKey(*sortBy),
			SortOrder:    model.SortOrder(*order),
			ExpiringSoon: *expiring,
		})
		if err != nil {
			fail(err)
		}
		printItems(view.Items(), time.Now())

	case "add":
		fs := flag.NewFlagSet("add", flag.ExitOnError)
		name := fs.String("name", "", "item name")
		qty := fs.Int("qty", 1, "quantity")
		unit := fs.String("unit", "", "unit of measure")
		expires := fs.String("expires", "", "expiration date YYYY-MM-DD")
		_ = fs.Parse(flag.Args()[1:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "need -name")
			os.Exit(1)
		}

		in := model.ItemInput{Name: *name, Quantity: *qty, Unit: *unit}
		if *expires != "" {
			d, err := model.ParseDate(*expires)
			if err != nil {
				fail(err)
			}
			in.ExpirationDate = &d
		}

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		_, view, engine := newStack(*addr, token)
		if err := view.Load(ctx, client.ListParams{}); err != nil {
			fail(err)
		}
		it, err := engine.Create(ctx, in)
		if err != nil {
			fail(err)
		}
		printJSON(it)

	case "edit":
		fs := flag.NewFlagSet("edit", flag.ExitOnError)
		id := fs.String("id", "", "item id (uuid)")
		name := fs.String("name", "", "new name")
		qty := fs.Int("qty", 0, "new quantity")
		unit := fs.String("unit", "", "new unit")
		expires := fs.String("expires", "", "new expiration date YYYY-MM-DD")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		var patch model.ItemPatch
		if *name != "" {
			patch.Name = name
		}
		if *qty > 0 {
			patch.Quantity = qty
		}
		if *unit != "" {
			patch.Unit = unit
		}
		if *expires != "" {
			d, err := model.ParseDate(*expires)
			if err != nil {
				fail(err)
			}
			patch.ExpirationDate = &d
		}
		if patch.Empty() {
			fmt.Fprintln(os.Stderr, "nothing to change")
			os.Exit(1)
		}

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		_, view, engine := newStack(*addr, token)
		if err := view.Load(ctx, client.ListParams{}); err != nil {
			fail(err)
		}
		it, err := engine.Update(ctx, *id, patch)
		if err != nil {
			fail(err)
		}
		printJSON(it)

	case "rm":
		fs := flag.NewFlagSet("rm", flag.ExitOnError)
		id := fs.String("id", "", "item id (uuid)")
		_ = fs.Parse(flag.Args()[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}

		token, err := loadToken()
		if err != nil {
			fail(err)
		}
		_, view, engine := newStack(*addr, token)
		if err := view.Load(ctx, client.ListParams{}); err != nil {
			fail(err)
		}
		if err := engine.Delete(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	default:
		usage()
	}
}

// ---- helpers ----

func fail(err error) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		fmt.Fprintln(os.Stderr, "unauthorized: login first")
	case errors.Is(err, errs.ErrNotFound):
		fmt.Fprintln(os.Stderr, "not found")
	case errors.Is(err, errs.ErrValidation):
		fmt.Fprintln(os.Stderr, err)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
