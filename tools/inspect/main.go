// Command inspect dumps a relay BadgerDB in human-readable form.
// Records are JSON; index entries (inbox:, thread:) hold the message UUID.
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

	"dm-relay/domain"
	"dm-relay/repositories"
)

func main() {
	dbPath := flag.String("db", "/tmp/dm-relay", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, inbox:, thread:, user:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "From", "To", "Timestamp", "Status", "Body"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			rawKey := string(item.Key())

			err := item.Value(func(v []byte) error {
				switch {
				case strings.HasPrefix(rawKey, "msg:"):
					var m domain.Message
					if err := json.Unmarshal(v, &m); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
						return nil
					}
					table.Append([]string{
						rawKey,
						m.From,
						m.To,
						m.CreatedAt.Format("15:04:05"),
						colorStatus(m.Status),
						truncate(m.Body, 40),
					})

				case strings.HasPrefix(rawKey, "user:"):
					var u repositories.User
					if err := json.Unmarshal(v, &u); err != nil {
						fmt.Printf("Error unmarshaling key %s: %v\n", rawKey, err)
						return nil
					}
					table.Append([]string{
						rawKey,
						truncate(u.ID, 8),
						u.Email,
						u.CreatedAt.Format("15:04:05"),
						strings.Join(u.Roles, ","),
						"",
					})

				default:
					// Index families store the target message UUID as value
					table.Append([]string{rawKey, "", "", "", "", string(v)})
				}
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
}

func colorStatus(status domain.Status) string {
	switch status {
	case domain.StatusRead:
		return color.Green.Sprint(status)
	case domain.StatusDelivered:
		return color.Yellow.Sprint(status)
	default:
		return color.Gray.Sprint(status)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true).
		WithValueLogFileSize(10 * 1024 * 1024)

	db, err := badger.Open(opts)
	if err != nil {
		// A crashed relay can leave the value log in need of truncation.
		// Open once in write mode to repair, then reopen read-only.
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}

			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
