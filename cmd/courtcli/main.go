// Command courtcli is a terminal client for the Courtside debate service:
// it creates or joins a room, relays stdin lines as chat messages, renders
// incoming messages and the live win-rate gauge, and prints the AI verdict
// once the debate is done.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aicourt/courtside/internal/api"
	"github.com/aicourt/courtside/internal/config"
	"github.com/aicourt/courtside/internal/logger"
	"github.com/aicourt/courtside/internal/metrics"
	"github.com/aicourt/courtside/internal/protocol"
	"github.com/aicourt/courtside/internal/push"
	"github.com/aicourt/courtside/internal/session"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to config file")
		joinCode   = flag.String("join", "", "invite code of a room to join (omit to create a room)")
		nickname   = flag.String("nickname", "", "nickname to debate under")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *nickname == "" {
		// Anonymous debaters still need a stable identity for the session.
		*nickname = "guest-" + uuid.NewString()[:8]
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warn("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	client, err := api.NewClient(cfg.ServerURL, cfg.RequestTimeout, log)
	if err != nil {
		log.Fatal("failed to create API client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	room, participantID, err := enterRoom(ctx, client, *joinCode, *nickname)
	if err != nil {
		log.Fatal("failed to enter room", zap.Error(err))
	}

	if *joinCode == "" {
		fmt.Printf("room created — share invite code %s\n", room.InviteCode)
	} else {
		fmt.Printf("joined room %s\n", room.InviteCode)
	}

	var feed session.Feed
	switch cfg.Transport {
	case config.TransportPush:
		pushCfg := push.DefaultConfig(cfg.WSURL)
		pushCfg.MaxReconnectWait = cfg.MaxBackoff
		feed = push.NewFeed(pushCfg, log)
	default:
		pollFeed := session.NewPollFeed(client, log)
		pollFeed.Interval = cfg.PollInterval
		pollFeed.MaxBackoff = cfg.MaxBackoff
		feed = pollFeed
	}

	ctrl := session.New(client, feed, log)
	if err := ctrl.Connect(strconv.FormatInt(room.RoomID, 10), participantID, *nickname); err != nil {
		log.Fatal("failed to connect session", zap.Error(err))
	}
	defer ctrl.Disconnect()

	done := make(chan struct{})
	go render(ctx, ctrl, room.RoomID, done)
	go readInput(ctx, ctrl, stop)

	select {
	case <-ctx.Done():
	case <-done:
	}
}

// enterRoom creates a room, or joins one when an invite code is given, and
// returns the room together with the local participant id.
func enterRoom(ctx context.Context, client *api.Client, joinCode, nickname string) (*protocol.RoomResponse, int64, error) {
	if joinCode == "" {
		room, err := client.CreateRoom(ctx, nickname)
		if err != nil {
			return nil, 0, err
		}
		return room, room.Host.ID, nil
	}

	room, err := client.JoinRoom(ctx, joinCode, nickname)
	if err != nil {
		return nil, 0, err
	}
	if room.Guest == nil {
		return nil, 0, errors.New("server did not report a guest participant")
	}
	return room, room.Guest.ID, nil
}

// render subscribes to the session observables and writes them to stdout.
// When the room reaches DONE it fetches the verdict, prints it, and closes
// done.
func render(ctx context.Context, ctrl *session.Controller, roomID int64, done chan<- struct{}) {
	messages, cancelMessages := ctrl.Messages().Subscribe()
	defer cancelMessages()
	winRates, cancelWinRates := ctrl.WinRate().Subscribe()
	defer cancelWinRates()
	statuses, cancelStatuses := ctrl.Status().Subscribe()
	defer cancelStatuses()
	errs, cancelErrs := ctrl.Err().Subscribe()
	defer cancelErrs()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return

		case msgs := <-messages:
			for _, m := range msgs[printed:] {
				speaker := m.Sender
				if m.Mine {
					speaker = "you"
				}
				fmt.Printf("[%s] %s\n", speaker, m.Content)
			}
			printed = len(msgs)

		case wr := <-winRates:
			fmt.Printf("win-rate: you %d%% / them %d%%\n", wr.Mine, wr.Theirs)

		case status := <-statuses:
			switch status {
			case protocol.StatusRequestFinish:
				fmt.Printf("%s asked to end the debate (/exit to agree)\n",
					ctrl.FinishRequester().Get())
			case protocol.StatusRequestAccept:
				fmt.Println("both sides agreed to finish — awaiting verdict")
			case protocol.StatusDone:
				printVerdict(ctx, ctrl, roomID)
				close(done)
				return
			}

		case err := <-errs:
			if err != nil {
				fmt.Printf("(connection trouble: %v — retrying)\n", err)
			}
		}
	}
}

// printVerdict fetches and prints the final judgement.
func printVerdict(ctx context.Context, ctrl *session.Controller, roomID int64) {
	fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	v, err := ctrl.FinalJudgement(fetchCtx, roomID)
	if err != nil {
		fmt.Printf("could not fetch the verdict: %v\n", err)
		return
	}

	fmt.Println("=== VERDICT ===")
	fmt.Printf("winner: %s (logic %d, empathy %d)\n", v.Winner, v.WinnerLogic, v.WinnerEmpathy)
	fmt.Printf("loser:  %s (logic %d, empathy %d)\n", v.Loser, v.LoserLogic, v.LoserEmpathy)
	fmt.Println(v.Judgement)
	fmt.Printf("%s: %s\n", v.Winner, v.WinnerReasoning)
	fmt.Printf("%s: %s\n", v.Loser, v.LoserReasoning)
}

// readInput relays stdin lines as chat messages. "/exit" requests to end the
// debate; "/quit" leaves immediately.
func readInput(ctx context.Context, ctrl *session.Controller, quit func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			quit()
			return
		case line == "/exit":
			if err := ctrl.RequestExit(ctx); err != nil {
				fmt.Printf("exit request failed: %v\n", err)
			}
		default:
			if err := ctrl.SendMessage(ctx, line); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
	}
}
