package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/sanabot/internal/dictionary"
	"github.com/at-ishikawa/sanabot/internal/dictionary/fintwol"
)

// CharsetFlag overrides the configured query charset when set.
type CharsetFlag fintwol.Charset

// Set implements pflag.Value.
func (c *CharsetFlag) Set(val string) error {
	charset, err := fintwol.ParseCharset(val)
	if err != nil {
		return err
	}
	*c = CharsetFlag(charset)
	return nil
}

// String implements pflag.Value.
func (c CharsetFlag) String() string {
	return string(c)
}

// Type implements pflag.Value.
func (c *CharsetFlag) Type() string {
	return "charset"
}

var (
	_ pflag.Value = (*CharsetFlag)(nil)
)

var statusColors = map[dictionary.Status]*color.Color{
	dictionary.StatusCached:   color.New(color.FgCyan),
	dictionary.StatusFetched:  color.New(color.FgGreen),
	dictionary.StatusNotFound: color.New(color.FgYellow),
	dictionary.StatusFailed:   color.New(color.FgRed),
}

func newLookupCommand() *cobra.Command {
	var (
		charset    CharsetFlag
		showStatus bool
	)

	cmd := &cobra.Command{
		Use:   "lookup WORD...",
		Short: "Look up words the same way the bot answers a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, closeStore, err := openSchemaStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			fetcher, err := newFetcher(cfg, fintwol.Charset(charset))
			if err != nil {
				return err
			}
			defer func() { _ = fetcher.Close() }()

			handler := newHandler(cfg, store, fetcher)
			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			if !showStatus {
				_, err := fmt.Fprintln(out, handler.HandleMessage(ctx, text))
				return err
			}

			bold := color.New(color.Bold)
			for _, result := range handler.LookupWords(ctx, text) {
				if _, err := bold.Fprintf(out, "%s ", result.Word); err != nil {
					return err
				}
				if _, err := statusColors[result.Status].Fprintf(out, "[%s]\n", result.Status); err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, result.Text); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Var(&charset, "charset", fmt.Sprintf("Query charset override. Possible values are %v", []fintwol.Charset{fintwol.CharsetLatin1, fintwol.CharsetUTF8}))
	cmd.Flags().BoolVar(&showStatus, "status", false, "Print the cache status of each word")
	return cmd
}
