package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/telebox/internal/cli/output"
	"github.com/marmos91/telebox/internal/cli/prompt"
	"github.com/marmos91/telebox/pkg/apiclient"
	"github.com/marmos91/telebox/pkg/config"
	"github.com/marmos91/telebox/pkg/record"
)

// adminPasswordEnv supplies the admin password to --server without a prompt.
const adminPasswordEnv = "TELEBOX_ADMIN_PASSWORD"

var (
	recordsOutput   string
	recordsServer   string
	recordsUsername string
	recordsLimit    int
	recordsAfter    string

	setListType string
	setLabel    string
	setLiked    bool
	setForce    bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Inspect and edit file records",
	Long: `Inspect and edit file records, directly in the configured record store
or through the admin API of a running gateway (--server).

Embedded stores (memory, badger) belong to the running gateway: use --server
for them while the gateway runs.`,
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List records ordered by handle",
	Example: `  telebox records list
  telebox records list --limit 50 --after BQAD.png -o json
  telebox records list --server http://localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runRecordsList,
}

var recordsShowCmd = &cobra.Command{
	Use:     "show <handle>",
	Short:   "Show one record",
	Example: `  telebox records show BQAD.png -o yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runRecordsShow,
}

var recordsSetCmd = &cobra.Command{
	Use:   "set <handle>",
	Short: "Update a record",
	Long: `Update the list type, label or liked flag of a record. A handle without a
record gets a default one first.`,
	Example: `  telebox records set BQAD.png --list White
  telebox records set BQAD.png --list Block --force
  telebox records set BQAD.png --label none --liked=false`,
	Args: cobra.ExactArgs(1),
	RunE: runRecordsSet,
}

func init() {
	recordsCmd.PersistentFlags().StringVarP(&recordsOutput, "output", "o", "table", "Output format (table|json|yaml)")
	recordsCmd.PersistentFlags().StringVar(&recordsServer, "server", "", "Gateway URL; use its admin API instead of the store")
	recordsCmd.PersistentFlags().StringVar(&recordsUsername, "username", "admin", "Admin username for --server")

	recordsListCmd.Flags().IntVar(&recordsLimit, "limit", record.DefaultListLimit, "Maximum number of records")
	recordsListCmd.Flags().StringVar(&recordsAfter, "after", "", "Start after this handle")

	recordsSetCmd.Flags().StringVar(&setListType, "list", "", "List type (None|White|Block)")
	recordsSetCmd.Flags().StringVar(&setLabel, "label", "", "Moderation label")
	recordsSetCmd.Flags().BoolVar(&setLiked, "liked", false, "Liked flag")
	recordsSetCmd.Flags().BoolVarP(&setForce, "force", "f", false, "Do not ask for confirmation")

	recordsCmd.AddCommand(recordsListCmd)
	recordsCmd.AddCommand(recordsShowCmd)
	recordsCmd.AddCommand(recordsSetCmd)
}

// recordTable renders entries as a table.
type recordTable []record.Entry

func (t recordTable) Headers() []string {
	return []string{"Handle", "List", "Label", "Liked", "Size", "Name", "Created"}
}

func (t recordTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, e := range t {
		r := e.Record
		rows = append(rows, []string{
			e.Handle,
			string(r.ListType),
			r.Label,
			strconv.FormatBool(r.Liked),
			strconv.FormatInt(r.FileSize, 10),
			r.FileName,
			time.UnixMilli(r.TimeStamp).UTC().Format(time.RFC3339),
		})
	}
	return rows
}

// recordSource is where the records commands read and write: the store
// itself, or the admin API of a running gateway.
type recordSource interface {
	List(ctx context.Context, limit int, after string) ([]record.Entry, error)
	Get(ctx context.Context, handle string) (*record.FileRecord, error)
	Update(ctx context.Context, handle string, u record.Update) (*record.FileRecord, error)
	Close() error
}

// openRecordSource uses the admin API when --server is set, the configured
// store otherwise.
func openRecordSource(ctx context.Context) (recordSource, error) {
	if recordsServer != "" {
		return dialRecordsAPI(recordsServer, recordsUsername)
	}
	store, err := openRecordStore(ctx)
	if err != nil {
		return nil, err
	}
	return storeSource{store}, nil
}

// openRecordStore opens the configured store for a CLI command.
func openRecordStore(ctx context.Context) (record.Store, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}

	switch cfg.Store.Type {
	case "none":
		return nil, errors.New("records are disabled (store.type is none)")
	case "memory":
		return nil, errors.New("the memory store lives inside the gateway process; use --server")
	}

	store, err := config.CreateStore(ctx, cfg.Store)
	if err != nil {
		if cfg.Store.Type == "badger" {
			return nil, fmt.Errorf("%w\n\nThe badger store can only be opened while the gateway is stopped; use --server instead", err)
		}
		return nil, err
	}
	return store, nil
}

type storeSource struct {
	store record.Store
}

func (s storeSource) List(ctx context.Context, limit int, after string) ([]record.Entry, error) {
	return s.store.List(ctx, record.ListOptions{Limit: limit, After: after})
}

func (s storeSource) Get(ctx context.Context, handle string) (*record.FileRecord, error) {
	return s.store.Get(ctx, handle)
}

func (s storeSource) Update(ctx context.Context, handle string, u record.Update) (*record.FileRecord, error) {
	rec, err := s.store.Get(ctx, handle)
	if errors.Is(err, record.ErrNotFound) {
		rec = record.Default(handle, time.Now())
	} else if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	updated := u.Apply(rec)
	if err := s.store.Put(ctx, handle, updated); err != nil {
		return nil, fmt.Errorf("failed to save record: %w", err)
	}
	return updated, nil
}

func (s storeSource) Close() error { return s.store.Close() }

// apiSource goes through the admin API. The context is unused: the client
// carries its own timeout.
type apiSource struct {
	client *apiclient.Client
}

// dialRecordsAPI logs in to the gateway at serverURL. The password comes
// from TELEBOX_ADMIN_PASSWORD or a prompt.
func dialRecordsAPI(serverURL, username string) (recordSource, error) {
	password := os.Getenv(adminPasswordEnv)
	if password == "" {
		var err error
		password, err = prompt.Password(fmt.Sprintf("Password for %s", username))
		if err != nil {
			return nil, err
		}
	}

	client := apiclient.New(serverURL)
	tok, err := client.Login(username, password)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, fmt.Errorf("admin API not enabled on %s", serverURL)
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return apiSource{client: client.WithToken(tok.AccessToken)}, nil
}

func (s apiSource) List(_ context.Context, limit int, after string) ([]record.Entry, error) {
	return s.client.ListRecords(limit, after)
}

func (s apiSource) Get(_ context.Context, handle string) (*record.FileRecord, error) {
	entry, err := s.client.GetRecord(handle)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, record.ErrNotFound
		}
		return nil, err
	}
	return entry.Record, nil
}

func (s apiSource) Update(_ context.Context, handle string, u record.Update) (*record.FileRecord, error) {
	entry, err := s.client.UpdateRecord(handle, u)
	if err != nil {
		return nil, err
	}
	return entry.Record, nil
}

func (s apiSource) Close() error { return nil }

func runRecordsList(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(recordsOutput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	src, err := openRecordSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	entries, err := src.List(ctx, recordsLimit, recordsAfter)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	if entries == nil {
		entries = []record.Entry{}
	}
	if format == output.FormatTable {
		if len(entries) == 0 {
			fmt.Println("No records found.")
			return nil
		}
		return output.PrintTable(os.Stdout, recordTable(entries))
	}
	return output.Print(os.Stdout, format, entries)
}

func runRecordsShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(recordsOutput)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	src, err := openRecordSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	rec, err := src.Get(ctx, args[0])
	if errors.Is(err, record.ErrNotFound) {
		return fmt.Errorf("no record for handle %q", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	return output.Print(os.Stdout, format, recordTable{{Handle: args[0], Record: rec}})
}

// buildUpdate turns the set flags into an Update. Only flags given on the
// command line are applied.
func buildUpdate(cmd *cobra.Command) (record.Update, error) {
	var u record.Update
	if cmd.Flags().Changed("list") {
		lt, err := record.ParseListType(setListType)
		if err != nil {
			return u, err
		}
		u.ListType = &lt
	}
	if cmd.Flags().Changed("label") {
		label := setLabel
		u.Label = &label
	}
	if cmd.Flags().Changed("liked") {
		liked := setLiked
		u.Liked = &liked
	}
	if u.Empty() {
		return u, errors.New("nothing to update: pass --list, --label or --liked")
	}
	return u, u.Validate()
}

func runRecordsSet(cmd *cobra.Command, args []string) error {
	handle := args[0]
	u, err := buildUpdate(cmd)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(recordsOutput)
	if err != nil {
		return err
	}

	if u.ListType != nil && *u.ListType == record.ListBlock {
		ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Block %s for all visitors", handle), setForce)
		if err != nil {
			if prompt.IsAborted(err) {
				return nil
			}
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	ctx := cmd.Context()
	src, err := openRecordSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	updated, err := src.Update(ctx, handle, u)
	if err != nil {
		return err
	}
	return output.Print(os.Stdout, format, recordTable{{Handle: handle, Record: updated}})
}
