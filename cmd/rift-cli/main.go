package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/peterkuimelis/rift/internal/deck"
	"github.com/peterkuimelis/rift/internal/game"
	"github.com/peterkuimelis/rift/internal/log"
	riftnet "github.com/peterkuimelis/rift/internal/net"
	"github.com/peterkuimelis/rift/internal/rules"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error
	switch cmd {
	case "decode":
		err = runDecode(os.Args[2:])
	case "expand":
		err = runExpand(os.Args[2:])
	case "rules":
		err = runRules(os.Args[2:])
	case "match":
		err = runMatch(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "ping":
		err = runPing(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  rift decode [--json] [--decks FILE --deck N | --deck-name NAME | FILE | -]")
	fmt.Println("  rift expand [--decks FILE --deck N | --deck-name NAME | FILE | -]")
	fmt.Println("  rift rules  [--id ID]")
	fmt.Println("  rift match  [--decks FILE] [--p1 N] [--p2 N] [--turns T]")
	fmt.Println("  rift serve  [--addr ADDR] [--log-level L] [--log-format F]")
	fmt.Println("  rift ping   [--url URL] [--timeout D]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  decode  Decode a deck code and print its sections")
	fmt.Println("  expand  Print a deck code as one card ID per copy")
	fmt.Println("  rules   Print the core rules table")
	fmt.Println("  match   Start a match between two library decks and print its log")
	fmt.Println("  serve   Run the WebSocket protocol server")
	fmt.Println("  ping    Check that a protocol server is answering")
	fmt.Println()
	fmt.Println("Deck codes are read from FILE, or from stdin when no source is given.")
}

// deckSource registers the flags shared by commands that take a deck code.
type deckSource struct {
	decksFile *string
	number    *int
	name      *string
}

func addDeckSource(fs *flag.FlagSet) deckSource {
	return deckSource{
		decksFile: fs.String("decks", "", "path to decks YAML file"),
		number:    fs.Int("deck", 0, "deck number to use (from the decks file)"),
		name:      fs.String("deck-name", "", "deck name to use (from the decks file)"),
	}
}

func (s deckSource) load(fs *flag.FlagSet) (*deck.ImportedDeck, error) {
	if *s.number > 0 || *s.name != "" {
		lib, err := deck.LoadLibrary(*s.decksFile)
		if err != nil {
			return nil, err
		}
		if *s.name != "" {
			return lib.DeckByName(*s.name)
		}
		return lib.DeckByNumber(*s.number)
	}

	var data []byte
	var err error
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		data, err = os.ReadFile(fs.Arg(0))
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("read deck code: %w", err)
	}
	return deck.Decode(string(data))
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	src := addDeckSource(fs)
	asJSON := fs.Bool("json", false, "print the decoded deck as JSON")
	fs.Parse(args)

	d, err := src.load(fs)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	if d.Name != "" {
		fmt.Printf("Deck: %s\n", d.Name)
	}
	printSection("Main Deck", d.MainDeck, d.MainCount())
	printSection("Rune Deck", d.RuneDeck, d.RuneCount())
	return nil
}

func printSection(title string, entries []deck.SectionEntry, total int) {
	fmt.Printf("%s (%d)\n", title, total)
	for _, e := range entries {
		fmt.Printf("  %d %s\n", e.Count, e.CardID)
	}
}

func runExpand(args []string) error {
	fs := flag.NewFlagSet("expand", flag.ExitOnError)
	src := addDeckSource(fs)
	fs.Parse(args)

	d, err := src.load(fs)
	if err != nil {
		return err
	}
	if err := d.CheckSize(); err != nil {
		return err
	}
	for _, id := range deck.Expand(d.MainDeck) {
		fmt.Println(id)
	}
	if len(d.RuneDeck) > 0 {
		fmt.Println("# runes")
		for _, id := range deck.Expand(d.RuneDeck) {
			fmt.Println(id)
		}
	}
	return nil
}

func runRules(args []string) error {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	id := fs.String("id", "", "print a single rule")
	fs.Parse(args)

	list := rules.All()
	if *id != "" {
		r, ok := rules.Lookup(*id)
		if !ok {
			return fmt.Errorf("unknown rule %q", *id)
		}
		list = []rules.CoreRule{r}
	}
	for _, r := range list {
		fmt.Printf("%-6s %s\n       %s\n", r.ID, r.Title, r.Text)
	}
	return nil
}

func runMatch(args []string) error {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	decksFile := fs.String("decks", "decks.yaml", "path to decks file")
	p1 := fs.Int("p1", 1, "deck number for player 1")
	p2 := fs.Int("p2", 2, "deck number for player 2")
	turns := fs.Int("turns", 2, "number of turns to play")
	fs.Parse(args)

	lib, err := deck.LoadLibrary(*decksFile)
	if err != nil {
		return err
	}

	engine := game.NewEngine(game.EngineConfig{Logger: log.NewTextLogger(os.Stdout)})
	var players []game.PlayerState
	for i, n := range []int{*p1, *p2} {
		d, err := lib.DeckByNumber(n)
		if err != nil {
			return err
		}
		p, err := engine.AddPlayer(fmt.Sprintf("P%d", i+1), d)
		if err != nil {
			return err
		}
		players = append(players, p)
	}

	engine.StartGame(players)
	for i := 1; i < *turns; i++ {
		if err := engine.EndTurn(); err != nil {
			return err
		}
	}
	engine.Logger.Log(log.NewInfoEvent(fmt.Sprintf("match stopped after turn %d", engine.State.Turn)))

	fmt.Println(strings.Repeat("-", 40))
	for _, id := range engine.State.Order {
		p, _ := engine.State.Player(id)
		fmt.Printf("%s: health %d, %d cards in deck, %d runes\n", p.ID, p.Health, p.DeckCount(), len(p.RuneDeck))
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":9000", "address to listen on")
	level := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	format := fs.String("log-format", "console", "log format (console, json)")
	fs.Parse(args)

	logger, err := log.NewProcessLogger(*level, *format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return riftnet.NewServer(logger).ListenAndServe(ctx, *addr)
}

func runPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	url := fs.String("url", "ws://localhost:9000/ws", "protocol server URL")
	timeout := fs.Duration("timeout", 5*time.Second, "connection timeout")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := riftnet.Connect(ctx, *url)
	if err != nil {
		return err
	}
	defer c.Close()

	msg, err := c.Ping(ctx)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}
