// shardctl is a REPL for inspecting and driving a table shard directly,
// useful for manual testing and poking at a store without a full query
// layer on top.
//
// Usage:
//
//	shardctl --base <dir> --db <name> --table <name> [--index name:col1,col2:keysize:valuesize:ordered]...
//
// Commands (in REPL):
//
//	put <json object>               Insert a row, e.g. put {"user":"alice"}
//	get <index> <col>=<val>[,...]   Look up a row through a named index
//	reconcile                       Drain the temp ring into the data shard
//	stat                            Show shard counts
//	help                            Show this help
//	exit / quit / q                 Exit
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/kivanodb/shardcore/config"
	"github.com/kivanodb/shardcore/dirs"
	"github.com/kivanodb/shardcore/fdm"
	"github.com/kivanodb/shardcore/schema"
	"github.com/kivanodb/shardcore/table"
)

func main() {
	base := flag.String("base", "./shardctl-data", "base storage directory")
	db := flag.String("db", "default", "database name")
	tableName := flag.String("table", "main", "table name")
	indexFlags := flag.StringArray("index", nil, "index spec name:col1,col2:keysize:valuesize:ordered (repeatable)")
	maxRows := flag.Uint64("max-rows-per-shard", 100000, "data/index shard capacity")
	maxTemps := flag.Int("max-temp-shards", 8, "temp ring width")
	maxFDs := flag.Int("max-open-fds", 256, "FD manager bound")
	flag.Parse()

	indexes, err := parseIndexFlags(*indexFlags)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shardctl:", err)
		os.Exit(1)
	}

	tbl := schema.Table{
		Name:       *tableName,
		PrimaryKey: "_uid",
		Indexes:    indexes,
	}

	opts := config.Options{
		MaxRowsPerShard:             *maxRows,
		MaxTemporaryShards:          *maxTemps,
		MaxRecordsPerHashIndexShard: *maxRows,
		MaxOpenFileDescriptors:      *maxFDs,
		BinaryOrder:                 true,
	}

	configPath := filepath.Join(*base, "shardctl.jsonc")
	if err := config.VerifyOrWrite(configPath, opts); err != nil {
		log.Fatalf("shardctl: %v", err)
	}

	mgr := fdm.New(*maxFDs)
	layout := dirs.New(*base)

	ts, err := table.Open(mgr, layout, *db, tbl, opts, jsonCodec{}, nil)
	if err != nil {
		log.Fatalf("shardctl: open table: %v", err)
	}

	repl(ts, *db, *tableName)
}

func parseIndexFlags(specs []string) ([]schema.Index, error) {
	var out []schema.Index
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 4 {
			return nil, fmt.Errorf("invalid --index %q: want name:cols:keysize:valuesize[:ordered]", spec)
		}
		keySize, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid key size in --index %q: %w", spec, err)
		}
		valueSize, err := strconv.ParseUint(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value size in --index %q: %w", spec, err)
		}
		ordered := true
		if len(parts) >= 5 {
			ordered = parts[4] == "true"
		}
		out = append(out, schema.Index{
			Name:        parts[0],
			Members:     strings.Split(parts[1], ","),
			Type:        schema.IndexTypeHash,
			KeySize:     keySize,
			ValueSize:   valueSize,
			BinaryOrder: ordered,
		})
	}
	return out, nil
}

func repl(ts *table.Shard, db, tableName string) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), "shardctl_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	prompt := fmt.Sprintf("shardctl(%s/%s)> ", db, tableName)
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				break
			}
			fmt.Fprintln(os.Stderr, "shardctl:", err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if !handleCommand(ts, input) {
			break
		}
	}

	if f, err := os.Create(historyPath); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

func handleCommand(ts *table.Shard, input string) bool {
	fields := strings.SplitN(input, " ", 2)
	cmd := fields[0]
	var rest string
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch cmd {
	case "exit", "quit", "q":
		return false
	case "help":
		printHelp()
	case "put":
		cmdPut(ts, rest)
	case "get":
		cmdGet(ts, rest)
	case "reconcile":
		if err := ts.Reconcile(); err != nil {
			fmt.Println("error:", err)
		} else {
			fmt.Println("ok")
		}
	case "stat":
		fmt.Printf("shards: %d\n", ts.Data().ShardCount())
	default:
		fmt.Printf("unknown command %q, try 'help'\n", cmd)
	}
	return true
}

func printHelp() {
	fmt.Print(`commands:
  put <json object>               insert a row, e.g. put {"user":"alice"}
  get <index> <col>=<val>[,...]   look up a row through a named index
  reconcile                       drain the temp ring into the data shard
  stat                            show shard counts
  help                            show this help
  exit / quit / q                 exit
`)
}

func cmdPut(ts *table.Shard, arg string) {
	row, err := parseJSONRow(arg)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	memberIdx, slot, err := ts.InsertRow(row)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("buffered in temp shard %d at local slot %d (run 'reconcile' to index it)\n", memberIdx, slot)
}

func cmdGet(ts *table.Shard, arg string) {
	fields := strings.SplitN(arg, " ", 2)
	if len(fields) != 2 {
		fmt.Println("usage: get <index> <col>=<val>[,...]")
		return
	}
	indexName := fields[0]
	values := parsePairs(fields[1])

	raw, found, err := ts.Lookup(indexName, func(column string) (string, bool) {
		v, ok := values[column]
		return v, !ok
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if !found {
		fmt.Println("not found")
		return
	}
	fmt.Println(string(raw))
}

func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func parseJSONRow(s string) (jsonRow, error) {
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("invalid JSON row: %w", err)
	}
	return jsonRow(m), nil
}
