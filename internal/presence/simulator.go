// Package presence keeps the demo directory lively: it periodically
// delivers simulated incoming messages to logged-in users and churns
// the presence status of everyone else.
package presence

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"teamchat/internal/chatapp"
	"teamchat/internal/config"
	"teamchat/internal/directory"
)

// phrases are the canned messages the simulator delivers.
var phrases = []string{
	"Hi there! 👋",
	"How's your day going?",
	"Can you check the latest report?",
	"Thanks for your help! 😊",
	"Let's sync up later today",
	"Great work on the project! 👏",
}

var statuses = []directory.Status{
	directory.StatusOnline,
	directory.StatusAway,
	directory.StatusOffline,
}

// Simulator drives the two presence timers.
type Simulator struct {
	app *chatapp.App
	cfg config.SimulatorConfig
	log *zap.Logger
	rng *rand.Rand
}

// New creates a simulator. A nil rng gets a time-seeded source.
func New(app *chatapp.App, cfg config.SimulatorConfig, log *zap.Logger, rng *rand.Rand) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{app: app, cfg: cfg, log: log, rng: rng}
}

// Run ticks both timers until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	msgTicker := time.NewTicker(time.Duration(s.cfg.MessageIntervalSeconds) * time.Second)
	defer msgTicker.Stop()
	statusTicker := time.NewTicker(time.Duration(s.cfg.StatusIntervalSeconds) * time.Second)
	defer statusTicker.Stop()

	s.log.Info("presence simulator running",
		zap.Int("message_interval_s", s.cfg.MessageIntervalSeconds),
		zap.Int("status_interval_s", s.cfg.StatusIntervalSeconds))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("presence simulator stopped")
			return
		case <-msgTicker.C:
			s.TickMessage()
		case <-statusTicker.C:
			s.TickStatus()
		}
	}
}

// TickMessage rolls the message probability for every logged-in user
// and, on a hit, delivers a canned message from a random other online
// user.
func (s *Simulator) TickMessage() {
	for _, active := range s.app.ActiveUsers() {
		if s.rng.Float64() >= s.cfg.MessageProbability {
			continue
		}

		var candidates []directory.User
		for _, u := range s.app.OnlineUsers() {
			if u.ID != active.ID {
				candidates = append(candidates, u)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		from := candidates[s.rng.Intn(len(candidates))]
		phrase := phrases[s.rng.Intn(len(phrases))]
		if err := s.app.DeliverSimulated(from.ID, active.ID, phrase); err != nil {
			s.log.Warn("simulated delivery failed", zap.Error(err))
		}
	}
}

// TickStatus rolls the churn probability for every user without a live
// session and, on a hit, moves them to a random presence status.
func (s *Simulator) TickStatus() {
	active := make(map[string]bool)
	for _, u := range s.app.ActiveUsers() {
		active[u.ID] = true
	}

	for _, u := range s.app.Users() {
		if active[u.ID] {
			continue
		}
		if s.rng.Float64() >= s.cfg.StatusProbability {
			continue
		}
		next := statuses[s.rng.Intn(len(statuses))]
		if err := s.app.ChurnStatus(u.ID, next); err != nil {
			s.log.Warn("status churn failed", zap.Error(err))
		}
	}
}
