package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/spf13/cobra"

	"github.com/sanusharma-ui/chat/internal/client"
	"github.com/sanusharma-ui/chat/internal/config"
	"github.com/sanusharma-ui/chat/internal/media"
	"github.com/sanusharma-ui/chat/internal/negotiation"
	"github.com/sanusharma-ui/chat/internal/ui"
)

var (
	flagCallDomain   string
	flagCallSTUN     string
	flagCallTURN     string
	flagCallTURNUser string
	flagCallTURNPass string
	flagCallRelay    bool
)

var callCmd = &cobra.Command{
	Use:   "call <room-id|url>",
	Short: "Join a room, chat, and establish the peer-to-peer session",
	Long: `Join a room and wait for the other participant. Once paired, the devices
negotiate a direct encrypted session; typed lines are sent as chat messages.

Examples:
  chat call movie-night
  chat call "https://chat.onrender.com/?room=movie-night"
  chat call movie-night --relay --turn turn:turn.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, err := parseRoomInput(args[0])
		if err != nil {
			return err
		}
		return runCall(roomID)
	},
}

const pairingTimeout = 10 * time.Second

func runCall(roomID string) error {
	cfg, err := config.Load(config.Options{
		Domain:     flagCallDomain,
		STUNServer: flagCallSTUN,
		TURNServer: flagCallTURN,
		TURNUser:   flagCallTURNUser,
		TURNPass:   flagCallTURNPass,
		ForceRelay: flagCallRelay,
	})
	if err != nil {
		return err
	}

	cl := client.NewClient(cfg.WebSocketURL, roomID)
	if err := cl.Connect(); err != nil {
		return err
	}
	defer cl.Close()

	h := client.NewHandler(cl)
	go h.Start()

	localID, partnerID, err := waitForPairing(h, roomID, cfg.RoomLink(roomID))
	if err != nil {
		// A server error is fatal for the session: abandon the room and
		// return to the prompt, never rejoin automatically.
		return err
	}
	ui.PrintStatus(ui.IconCall, "Partner connected")

	return runSession(cfg, cl, h, localID, partnerID)
}

// waitForPairing drives the lifecycle events up to paired: welcome carries
// our own id, then either waiting (first member) or straight to paired.
func waitForPairing(h *client.Handler, roomID, link string) (localID, partnerID string, err error) {
	select {
	case localID = <-h.Welcome:
	case msg := <-h.Errors:
		return "", "", fmt.Errorf("join room %q: %s", roomID, msg)
	case <-h.Done:
		return "", "", fmt.Errorf("join room %q: connection to server lost", roomID)
	case <-time.After(pairingTimeout):
		return "", "", fmt.Errorf("join room %q: no response from server", roomID)
	}

	for {
		select {
		case <-h.Waiting:
			ui.PrintStatus(ui.IconWaiting, "Waiting for partner...")
			ui.PrintInfof("Share this link: %s", link)

		case <-h.Paired:
			// partnerId is committed before paired, so it is already
			// buffered by the handler.
			select {
			case partnerID = <-h.PartnerID:
				return localID, partnerID, nil
			case <-time.After(pairingTimeout):
				return "", "", fmt.Errorf("paired but no partner id received")
			}

		case msg := <-h.Errors:
			return "", "", fmt.Errorf("join room %q: %s", roomID, msg)

		case <-h.Done:
			return "", "", fmt.Errorf("join room %q: connection to server lost", roomID)
		}
	}
}

// runSession owns the peer connection and the single in-order dispatch loop
// that feeds the negotiation coordinator.
func runSession(cfg *config.Config, cl *client.Client, h *client.Handler, localID, partnerID string) error {
	pc, err := media.NewPeerConnection(cfg)
	if err != nil {
		// Local media failure: report and abort, never retry
		// automatically.
		return fmt.Errorf("%w: %v", negotiation.ErrMediaUnavailable, err)
	}

	sess := negotiation.NewSession(localID, partnerID, media.NewPionSession(pc), cl, nil)

	ctrl, err := media.NewControlChannel(pc)
	if err != nil {
		sess.Close()
		return fmt.Errorf("create control channel: %w", err)
	}

	// Local triggers are funneled into the dispatch loop so every event,
	// remote or local, is handled strictly one at a time.
	negotiate := make(chan struct{}, 1)
	peerBye := make(chan struct{}, 1)
	connLost := make(chan struct{}, 1)

	pc.OnNegotiationNeeded(func() {
		select {
		case negotiate <- struct{}{}:
		default:
		}
	})
	pc.OnICECandidate(sess.HandleLocalCandidate)
	pc.OnConnectionStateChange(func(state pion.PeerConnectionState) {
		switch state {
		case pion.PeerConnectionStateConnected:
			ui.PrintSuccess("Direct connection established")
		case pion.PeerConnectionStateFailed, pion.PeerConnectionStateClosed:
			select {
			case connLost <- struct{}{}:
			default:
			}
		}
	})

	ctrl.OnOpen(func() {
		if data, err := media.EncodeControl(&media.ControlMessage{Kind: media.ControlHello, From: localID}); err == nil {
			ctrl.Send(data)
		}
	})
	ctrl.OnMessage(func(msg pion.DataChannelMessage) {
		ctl, err := media.DecodeControl(msg.Data)
		if err != nil {
			return
		}
		if ctl.Kind == media.ControlBye {
			select {
			case peerBye <- struct{}{}:
			default:
			}
		}
	})

	lines := readLines(os.Stdin)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	defer sess.Close()

	for {
		select {
		case <-negotiate:
			if err := sess.Negotiate(); err != nil {
				return err
			}

		case d := <-h.Offers:
			if err := sess.HandleOffer(d.SDP); err != nil {
				return err
			}

		case d := <-h.Answers:
			if err := sess.HandleAnswer(d.SDP); err != nil {
				return err
			}

		case c := <-h.Candidates:
			if err := sess.HandleCandidate(c.Candidate); err != nil {
				return err
			}

		case msg := <-h.Messages:
			self := msg.Sender == localID
			sender := "partner"
			if self {
				sender = "you"
			}
			ui.PrintChat(sender, msg.Text, msg.Time, self)
			if !self {
				cl.SendSeen(msg.ID)
			}

		case <-h.Seen:
			// Read receipts are best-effort; nothing to render in a
			// line-oriented client.

		case tp := <-h.Typing:
			if tp.IsTyping {
				fmt.Println(ui.MutedStyle.Render("partner is typing..."))
			}

		case line := <-lines:
			cl.SendChat(line)

		case <-h.PartnerLeft:
			ui.PrintStatus(ui.IconPeer, "Partner left")
			return nil

		case <-peerBye:
			ui.PrintStatus(ui.IconCall, "Partner hung up")
			return nil

		case <-connLost:
			return fmt.Errorf("peer connection lost")

		case msg := <-h.Errors:
			return fmt.Errorf("server error: %s", msg)

		case <-h.Done:
			return fmt.Errorf("connection to server lost")

		case <-interrupt:
			if data, err := media.EncodeControl(&media.ControlMessage{Kind: media.ControlBye, From: localID}); err == nil {
				ctrl.Send(data)
			}
			ui.PrintInfo("Leaving room")
			return nil
		}
	}
}

// readLines feeds stdin lines into a channel for the dispatch loop.
func readLines(f *os.File) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				out <- line
			}
		}
	}()
	return out
}

// parseRoomInput accepts a bare room id or a full share link.
func parseRoomInput(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("room id cannot be empty")
	}

	if strings.Contains(input, "://") {
		u, err := url.Parse(input)
		if err != nil {
			return "", fmt.Errorf("parse room link: %w", err)
		}
		id := u.Query().Get("room")
		if id == "" {
			return "", fmt.Errorf("could not extract room id from %q", input)
		}
		return id, nil
	}

	return input, nil
}

func init() {
	rootCmd.AddCommand(callCmd)

	callCmd.Flags().StringVar(&flagCallDomain, "domain", "", "Custom server domain")
	callCmd.Flags().StringVarP(&flagCallSTUN, "stun", "s", "", "Custom STUN server")
	callCmd.Flags().StringVarP(&flagCallTURN, "turn", "t", "", "Custom TURN server")
	callCmd.Flags().StringVar(&flagCallTURNUser, "turn-user", "", "TURN username")
	callCmd.Flags().StringVar(&flagCallTURNPass, "turn-pass", "", "TURN password")
	callCmd.Flags().BoolVarP(&flagCallRelay, "relay", "r", false, "Force relay mode")
}
