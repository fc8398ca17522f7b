package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/eigerco/hourglass/internal/checksum"
	"github.com/eigerco/hourglass/internal/ledger"
	"github.com/eigerco/hourglass/internal/ledgertime"
	"github.com/eigerco/hourglass/internal/store"
	"github.com/eigerco/hourglass/internal/token"
	"github.com/eigerco/hourglass/pkg/db"
	"github.com/eigerco/hourglass/pkg/db/badger"
	"github.com/eigerco/hourglass/pkg/db/pebble"
	"github.com/eigerco/hourglass/pkg/log"
)

// Step is one scripted action. Account fields take a name: a string
// that parses as a 0x address is used as-is, anything else is hashed
// to a deterministic address, so scenarios can just say "alice".
type Step struct {
	Op      string `json:"op"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Owner   string `json:"owner,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
	Slots   uint64 `json:"slots,omitempty"`
	Ticks   uint64 `json:"ticks,omitempty"`
}

type Scenario struct {
	Steps []Step `json:"steps"`
}

func loadScenario(filename string) (Scenario, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return Scenario{}, fmt.Errorf("error reading file: %w", err)
	}

	var s Scenario
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return Scenario{}, fmt.Errorf("error unmarshaling JSON: %w", err)
	}

	return s, nil
}

// builtinScenario is the two-account story: staggered mints, one
// stamp-preserving transfer, then the window slides over both mint
// slots.
func builtinScenario() Scenario {
	return Scenario{Steps: []Step{
		{Op: "mint", To: "alice", Amount: 10},
		{Op: "mint", To: "bob", Amount: 10},
		{Op: "transfer", From: "alice", To: "bob", Amount: 5},
		{Op: "show"},
		{Op: "advance", Slots: 1},
		{Op: "mint", To: "alice", Amount: 10},
		{Op: "mint", To: "bob", Amount: 10},
		{Op: "show"},
		{Op: "advance", Slots: 1},
		{Op: "show"},
		{Op: "advance", Slots: 1},
		{Op: "show"},
	}}
}

type runner struct {
	tok        *token.Token
	clock      *token.ManualClock
	allowances *token.MapAllowances
	window     ledgertime.Window

	names []string
	addrs map[string]ledger.Address
}

func (r *runner) address(name string) ledger.Address {
	if addr, ok := r.addrs[name]; ok {
		return addr
	}
	addr, err := ledger.AddressFromHex(name)
	if err != nil {
		digest := checksum.Sum([]byte(name))
		copy(addr[:], digest[:ledger.AddressSize])
	}
	r.addrs[name] = addr
	r.names = append(r.names, name)
	return addr
}

func (r *runner) apply(step Step) error {
	switch step.Op {
	case "mint":
		return r.tok.Mint(r.address(step.To), step.Amount)
	case "burn":
		return r.tok.Burn(r.address(step.From), step.Amount)
	case "transfer":
		return r.tok.Transfer(r.address(step.From), r.address(step.To), step.Amount)
	case "transfer-from":
		return r.tok.TransferFrom(r.address(step.Spender), r.address(step.From), r.address(step.To), step.Amount)
	case "approve":
		r.allowances.Approve(r.address(step.Owner), r.address(step.Spender), step.Amount)
		return nil
	case "advance":
		r.clock.Advance(step.Slots*uint64(r.window.UnitDuration) + step.Ticks)
		return nil
	case "show":
		r.show()
		return nil
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *runner) show() {
	era, slotInEra := r.tok.CurrentEraAndSlot()
	fmt.Printf("tick %d (era %d, slot %d in era): supply %d spendable / %d raw\n",
		r.clock.Ticks(), era, slotInEra, r.tok.TotalSupply(), r.tok.TotalRawSupply())
	for _, name := range r.names {
		addr := r.addrs[name]
		fmt.Printf("  %-10s %6d spendable / %6d raw\n", name, r.tok.BalanceOf(addr), r.tok.RawBalanceOf(addr))
	}
	fmt.Println()
}

func openStore(engine, path string) (db.KVStore, error) {
	switch engine {
	case "pebble":
		if path == "" {
			return pebble.NewKVStore()
		}
		return pebble.Open(path)
	case "badger":
		if path == "" {
			return badger.NewKVStore()
		}
		return badger.Open(path)
	default:
		return nil, fmt.Errorf("unknown db engine %q", engine)
	}
}

// checkpointAndReplay saves the final state, reloads it to prove the
// digest verifies, and prints the recorded journal.
func checkpointAndReplay(kv db.KVStore, l *ledger.Ledger, tick ledgertime.Tick, opts ...ledger.Option) {
	cp := store.NewCheckpoint(kv)
	if err := cp.Save(l, tick); err != nil {
		log.Root.Fatal().Err(err).Msg("saving checkpoint")
	}
	restored, savedAt, err := cp.Load(l.Window(), opts...)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("reloading checkpoint")
	}
	log.Root.Info().
		Uint64("tick", uint64(savedAt)).
		Uint64("raw_supply", restored.TotalRaw()).
		Msg("checkpoint verified")

	entries, err := store.NewJournal(kv).Entries(0)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("reading journal")
	}
	fmt.Printf("journal (%d entries):\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %s %-8s from=%-12s to=%-12s amount=%d slot=%d\n",
			e.ID, e.Op, short(e.From), short(e.To), e.Amount, e.Slot)
	}
}

func short(addr ledger.Address) string {
	if addr.IsZero() {
		return "-"
	}
	return addr.Hex()[:12]
}

// main runs a scripted session against an expiring ledger.
// go run main.go -scenario steps.json -db pebble -db-path /tmp/hourglass
func main() {
	var (
		unit       = flag.Uint64("unit", uint64(ledgertime.DefaultUnitDuration), "ticks per slot")
		slotsEra   = flag.Uint64("slots-per-era", ledgertime.DefaultSlotsPerEra, "slots per era")
		validity   = flag.Uint64("validity", ledgertime.DefaultValiditySlots, "validity window in slots")
		policyName = flag.String("policy", "preserve", "transfer stamping policy: preserve or restamp")
		scenario   = flag.String("scenario", "", "JSON scenario file (omit for the built-in demo)")
		engine     = flag.String("db", "", "checkpoint/journal engine: pebble or badger (omit to skip persistence)")
		dbPath     = flag.String("db-path", "", "engine directory (empty means in-memory)")
		loglevel   = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	level, err := log.ParseLogLevel(*loglevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Init(log.Options{LogLevel: level, Type: log.ConsoleLogger})

	policy, err := ledger.ParseStampPolicy(*policyName)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("bad policy flag")
	}

	w := ledgertime.Window{
		UnitDuration:  ledgertime.Tick(*unit),
		SlotsPerEra:   *slotsEra,
		ValiditySlots: *validity,
	}
	l, err := ledger.New(w, ledger.WithStampPolicy(policy))
	if err != nil {
		log.Root.Fatal().Err(err).Msg("bad window configuration")
	}

	clock := token.NewManualClock(0)
	allowances := token.NewMapAllowances()
	opts := []token.Option{token.WithAllowances(allowances)}

	var kv db.KVStore
	if *engine != "" {
		kv, err = openStore(*engine, *dbPath)
		if err != nil {
			log.Root.Fatal().Err(err).Msg("opening store")
		}
		defer kv.Close()
		opts = append(opts, token.WithJournal(store.NewJournal(kv)))
	}

	tok, err := token.New(l, clock, opts...)
	if err != nil {
		log.Root.Fatal().Err(err).Msg("building token")
	}

	script := builtinScenario()
	if *scenario != "" {
		script, err = loadScenario(*scenario)
		if err != nil {
			log.Root.Fatal().Err(err).Msg("loading scenario")
		}
	}

	fmt.Printf("window: %d ticks per slot, %d slots per era, validity %d slots, policy %s\n\n",
		*unit, *slotsEra, *validity, policy)

	r := &runner{
		tok:        tok,
		clock:      clock,
		allowances: allowances,
		window:     w,
		addrs:      make(map[string]ledger.Address),
	}
	for i, step := range script.Steps {
		if err := r.apply(step); err != nil {
			log.Root.Fatal().Err(err).Int("step", i).Str("op", step.Op).Msg("step failed")
		}
	}

	if kv != nil {
		checkpointAndReplay(kv, l, clock.Ticks(), ledger.WithStampPolicy(policy))
	}
}
