package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/sanusharma-ui/chat/internal/config"
	"github.com/sanusharma-ui/chat/internal/roomid"
	"github.com/sanusharma-ui/chat/internal/ui"
)

var flagCreateDomain string

var createCmd = &cobra.Command{
	Use:   "create [room-id]",
	Short: "Create a room and print its shareable link",
	Long: `Create a room on the server and print the link to share with the other
participant. With no argument the server picks a random, unguessable id.

Examples:
  chat create
  chat create movie-night`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		custom := ""
		if len(args) == 1 {
			custom = args[0]
		}
		return createRoom(custom)
	},
}

func createRoom(custom string) error {
	cfg, err := config.Load(config.Options{Domain: flagCreateDomain})
	if err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	endpoint := cfg.HTTPBaseURL + "/create-room"

	var resp *http.Response
	if custom != "" {
		if !roomid.Valid(custom) {
			return fmt.Errorf("invalid room id %q: use 3-20 letters, digits, - or _", custom)
		}
		body, _ := json.Marshal(map[string]string{"roomId": custom})
		resp, err = httpClient.Post(endpoint, "application/json", bytes.NewReader(body))
	} else {
		resp, err = httpClient.Get(endpoint)
	}
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Link  string `json:"link"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create room: %s", result.Error)
	}

	ui.PrintSuccess("Room created. Share this link:")
	ui.PrintLinkBox(result.Link)
	return nil
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&flagCreateDomain, "domain", "", "Custom server domain")
}
