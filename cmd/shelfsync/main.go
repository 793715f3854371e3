package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"

	"shelfsync/internal/creds"
	"shelfsync/internal/directory"
	"shelfsync/internal/remote"
	"shelfsync/internal/scanner"
	"shelfsync/internal/toggle"
	"shelfsync/internal/tracker"
	"shelfsync/pkg/models"
	"shelfsync/pkg/utils"
)

func main() {
	cfg := utils.LoadClientConfig()

	global := flag.NewFlagSet("shelfsync", flag.ExitOnError)
	baseURL := global.String("api", cfg.BaseURL, "API base URL")
	tokenPath := global.String("token", cfg.TokenPath, "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	provider := creds.NewFileProvider(*tokenPath)
	client := remote.NewClient(*baseURL, provider)
	dir := directory.New(client)
	sc := scanner.New(client)
	sc.ProbeTimeout = cfg.ProbeTimeout
	coord := toggle.New(dir, client, sc)
	track := tracker.New(client)

	switch cmd {
	case "auth":
		handleAuth(ctx, client, provider, sub, args[2:])
	case "shelves":
		handleShelves(ctx, client, dir, sub, args[2:])
	case "scan":
		handleScan(ctx, dir, sc, args[1:])
	case "toggle":
		handleToggle(ctx, dir, coord, args[1:])
	case "progress":
		handleProgress(ctx, track, sub, args[2:])
	case "export":
		handleExport(ctx, client, dir, sub, args[2:])
	case "watch":
		handleWatch(*baseURL, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *remote.Client, provider *creds.FileProvider, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		res, err := client.Login(ctx, *email, *password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := provider.Save(res.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *email == "" || *password == "" {
			log.Fatal("username, email, and password are required")
		}

		res, err := client.Register(ctx, *username, *email, *password)
		if err != nil {
			log.Fatalf("register failed: %v", err)
		}
		if err := provider.Save(res.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("registered and logged in")
	case "logout":
		if err := client.Logout(ctx); err != nil {
			log.Printf("remote logout failed: %v", err)
		}
		if err := provider.Clear(); err != nil {
			log.Fatalf("clear token: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: shelfsync auth <login|register|logout>")
	}
}

func handleShelves(ctx context.Context, client *remote.Client, dir *directory.Directory, sub string, args []string) {
	switch sub {
	case "list", "":
		shelves, err := dir.List(ctx)
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(shelves)
	case "create":
		fs := flag.NewFlagSet("shelves create", flag.ExitOnError)
		name := fs.String("name", "", "shelf name")
		private := fs.Bool("private", false, "private shelf")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("name is required")
		}

		shelf, err := client.CreateShelf(ctx, *name, *private)
		if err != nil {
			log.Fatalf("create failed: %v", err)
		}
		printJSON(shelf)
	default:
		log.Fatal("usage: shelfsync shelves <list|create>")
	}
}

func handleScan(ctx context.Context, dir *directory.Directory, sc *scanner.Scanner, args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	editionID := fs.String("edition", "", "edition id")
	verbose := fs.Bool("v", false, "print each probe as it settles")
	_ = fs.Parse(args)
	if *editionID == "" {
		log.Fatal("edition is required")
	}

	shelves, err := dir.List(ctx)
	if err != nil {
		log.Fatalf("list shelves failed: %v", err)
	}

	if *verbose {
		sc.OnProbe = func(shelf models.Shelf, member bool, err error) {
			switch {
			case err != nil:
				log.Printf("[scan] %s: unconfirmed (%v)", shelf.Name, err)
			case member:
				log.Printf("[scan] %s: member", shelf.Name)
			default:
				log.Printf("[scan] %s: not a member", shelf.Name)
			}
		}
	}

	res, err := sc.Scan(ctx, shelves, *editionID)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	out := struct {
		EditionID   string   `json:"edition_id"`
		Members     []string `json:"members"`
		Unconfirmed []string `json:"unconfirmed,omitempty"`
	}{EditionID: res.EditionID, Unconfirmed: res.Unconfirmed}
	for _, s := range shelves {
		if res.Members.Has(s.ID) {
			out.Members = append(out.Members, s.ID)
		}
	}
	printJSON(out)
}

func handleToggle(ctx context.Context, dir *directory.Directory, coord *toggle.Coordinator, args []string) {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	shelfID := fs.String("shelf", "", "shelf id")
	kind := fs.String("kind", "", "shelf kind (want_to_read|reading|read|owned)")
	editionID := fs.String("edition", "", "edition id")
	_ = fs.Parse(args)
	if *editionID == "" {
		log.Fatal("edition is required")
	}
	if (*shelfID == "") == (*kind == "") {
		log.Fatal("exactly one of -shelf or -kind is required")
	}

	var (
		view models.MembershipSet
		err  error
	)
	if *shelfID != "" {
		view, err = coord.Toggle(ctx, *shelfID, *editionID)
	} else {
		k := models.ParseShelfKind(*kind)
		if k == "" {
			log.Fatalf("unknown shelf kind %q", *kind)
		}
		view, err = coord.ToggleKind(ctx, k, *editionID)
	}
	if err != nil {
		log.Fatalf("toggle failed: %v", err)
	}

	shelves, _ := dir.Shelves(ctx)
	out := make(map[string]bool, len(shelves))
	for _, s := range shelves {
		out[s.Name] = view.Has(s.ID)
	}
	printJSON(out)
}

func handleProgress(ctx context.Context, track *tracker.Tracker, sub string, args []string) {
	switch sub {
	case "show":
		fs := flag.NewFlagSet("progress show", flag.ExitOnError)
		clubID := fs.String("club", "", "club id")
		editionID := fs.String("edition", "", "edition id")
		_ = fs.Parse(args)
		if *clubID == "" || *editionID == "" {
			log.Fatal("club and edition are required")
		}

		p, err := track.Get(ctx, *clubID, *editionID)
		if err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(p)
	case "update":
		fs := flag.NewFlagSet("progress update", flag.ExitOnError)
		clubID := fs.String("club", "", "club id")
		editionID := fs.String("edition", "", "edition id")
		page := fs.Int("page", -1, "current page (omit to keep)")
		status := fs.String("status", "", "status (omit to keep/derive)")
		total := fs.Int("total", 0, "total pages if known")
		_ = fs.Parse(args)
		if *clubID == "" || *editionID == "" {
			log.Fatal("club and edition are required")
		}

		req := tracker.UpdateRequest{}
		if *page >= 0 {
			req.CurrentPage = page
		}
		if *status != "" {
			s := models.ParseReadingStatus(*status)
			if s == "" {
				log.Fatalf("unknown status %q", *status)
			}
			req.Status = s
		}
		if *total > 0 {
			req.TotalPages = total
		}

		p, err := track.Update(ctx, *clubID, *editionID, req)
		if err != nil {
			log.Fatalf("update failed: %v", err)
		}
		printJSON(p)
	default:
		log.Fatal("usage: shelfsync progress <show|update>")
	}
}

func handleExport(ctx context.Context, client *remote.Client, dir *directory.Directory, sub string, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output path")
	_ = fs.Parse(args)

	shelves, err := dir.List(ctx)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	dump := make([]shelfDump, 0, len(shelves))
	for _, s := range shelves {
		editions, err := client.ShelfEditions(ctx, s.ID)
		if err != nil {
			log.Fatalf("export: shelf %s: %v", s.ID, err)
		}
		dump = append(dump, shelfDump{Shelf: s, Editions: editions})
	}

	switch sub {
	case "json":
		path := *out
		if path == "" {
			path = "data/shelves.json"
		}
		if err := writeJSON(path, dump); err != nil {
			log.Fatalf("write json failed: %v", err)
		}
		log.Printf("exported %d shelves to %s", len(dump), path)
	case "csv":
		path := *out
		if path == "" {
			path = "data/shelves.csv"
		}
		if err := writeCSV(path, dump); err != nil {
			log.Fatalf("write csv failed: %v", err)
		}
		log.Printf("exported %d shelves to %s", len(dump), path)
	default:
		log.Fatal("usage: shelfsync export <json|csv>")
	}
}

func handleWatch(baseURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	wsURL := fs.String("ws", "", "websocket URL (defaults to /ws on API host)")
	_ = fs.Parse(args)

	endpoint := *wsURL
	if endpoint == "" {
		var err error
		endpoint, err = websocketURL(baseURL, "/ws")
		if err != nil {
			log.Fatalf("ws url: %v", err)
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		log.Fatalf("watch failed: %v", err)
	}
	defer conn.Close()

	log.Printf("[watch] connected to %s", endpoint)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("watch disconnected: %v", err)
		}
		fmt.Print(string(msg))
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

type shelfDump struct {
	models.Shelf
	Editions []string `json:"editions"`
}

func writeCSV(path string, dump []shelfDump) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"shelf_id", "name", "kind", "private", "edition_id"}); err != nil {
		return err
	}
	for _, s := range dump {
		private := "false"
		if s.Private {
			private = "true"
		}
		for _, edition := range s.Editions {
			if err := writer.Write([]string{s.ID, s.Name, string(s.Kind), private, edition}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("shelfsync <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout")
	fmt.Println("  shelves list|create")
	fmt.Println("  scan -edition <id> [-v]")
	fmt.Println("  toggle (-shelf <id> | -kind <kind>) -edition <id>")
	fmt.Println("  progress show|update")
	fmt.Println("  export json|csv")
	fmt.Println("  watch")
	fmt.Println()
	fmt.Println("environment: SHELFSYNC_API, SHELFSYNC_TOKEN_PATH, SHELFSYNC_PROBE_TIMEOUT_SECS")
}
