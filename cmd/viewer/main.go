// Command viewer prints the contents of a running server's store as tables.
// It opens Badger read-only so it can run next to a live process.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"

	"pingme/domain/chat"
	"pingme/internal"
)

func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	prefix := flag.String("prefix", "msg:", "Key prefix to scan (msg:, conv:, status:, user:)")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	header := color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf(" Store viewer | prefix %q ", *prefix))
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Time", "Who", "Detail"})
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
			key := string(item.Key())

			// Secondary indexes carry no payload worth printing.
			if strings.HasPrefix(key, "msgix:") || strings.HasPrefix(key, "convix:") || strings.HasPrefix(key, "userml:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(rowFor(key, v))
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

// rowFor renders one store entry according to its namespace.
func rowFor(key string, val []byte) []string {
	switch {
	case strings.HasPrefix(key, "msg:"):
		var msg chat.Message
		if err := json.Unmarshal(val, &msg); err == nil {
			detail := msg.Content
			if detail == "" {
				detail = msg.MediaURL
			}
			return []string{key, "MSG/" + string(msg.Status),
				msg.CreatedAt.Format(time.TimeOnly),
				fmt.Sprintf("%s→%s", msg.SenderID, msg.ReceiverID), detail}
		}
	case strings.HasPrefix(key, "conv:"):
		var conv chat.Conversation
		if err := json.Unmarshal(val, &conv); err == nil {
			return []string{key, "CONV",
				conv.UpdatedAt.Format(time.TimeOnly),
				conv.Key(),
				fmt.Sprintf("unread=%d last=%s", conv.UnreadCount, short(conv.LastMessageID.String()))}
		}
	case strings.HasPrefix(key, "status:"):
		var status chat.Status
		if err := json.Unmarshal(val, &status); err == nil {
			return []string{key, "STATUS/" + string(status.ContentType),
				status.CreatedAt.Format(time.TimeOnly),
				status.OwnerID,
				fmt.Sprintf("viewers=%d expires=%s", len(status.Viewers), status.ExpiresAt.Format(time.TimeOnly))}
		}
	case strings.HasPrefix(key, "user:"):
		var user chat.User
		if err := json.Unmarshal(val, &user); err == nil {
			lastSeen := "online"
			if !user.IsOnline {
				lastSeen = user.LastSeen.Format(time.TimeOnly)
			}
			return []string{key, "USER", lastSeen, user.Username, user.Email}
		}
	}
	return []string{key, "RAW", "--:--:--", "--------", fmt.Sprintf("Size: %d bytes", len(val))}
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
