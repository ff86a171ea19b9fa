// Command inspect dumps store records for debugging. It opens the
// database read-only and prints one row per record under the given
// prefix. Encrypted stores print sizes only; point it at a plaintext
// store to see decoded summaries.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data", "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan (empty scans everything)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Size", "Summary"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	undecodable := 0
	err = db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(*prefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				summary := summarize(v)
				if summary == "" {
					undecodable++
				}
				table.Append([]string{key, kindOf(key), fmt.Sprintf("%dB", len(v)), summary})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	if undecodable > 0 {
		color.New(color.FgYellow).Printf("%d record(s) not plaintext JSON (encrypted store?)\n", undecodable)
	}
}

// kindOf classifies a key by its namespace prefix.
func kindOf(key string) string {
	ns, _, found := strings.Cut(key, ":")
	if !found {
		return "?"
	}
	if ns == "idx" {
		rest := strings.TrimPrefix(key, "idx:")
		inner, _, _ := strings.Cut(rest, ":")
		return "index/" + inner
	}
	return ns
}

func isPrintable(v []byte) bool {
	if len(v) == 0 || len(v) > 128 {
		return false
	}
	for _, b := range v {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}

// summarize renders a short single-line view of a JSON record.
func summarize(v []byte) string {
	var decoded any
	if err := json.Unmarshal(v, &decoded); err != nil {
		// Id-alias records hold a bare id; anything else unreadable
		// is most likely an encrypted value.
		if isPrintable(v) {
			return string(v)
		}
		return ""
	}
	switch d := decoded.(type) {
	case map[string]any:
		parts := make([]string, 0, 3)
		for _, field := range []string{"id", "name", "email", "content"} {
			if s, ok := d[field].(string); ok && s != "" {
				if len(s) > 40 {
					s = s[:40] + "…"
				}
				parts = append(parts, field+"="+s)
			}
		}
		return strings.Join(parts, " ")
	case []any:
		return fmt.Sprintf("%d entries", len(d))
	default:
		s := string(v)
		if len(s) > 50 {
			s = s[:50] + "…"
		}
		return s
	}
}
