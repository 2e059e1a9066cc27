package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/pushbox/game/config"
	"github.com/wricardo/pushbox/game/engine"
	"github.com/wricardo/pushbox/game/session"
	"github.com/wricardo/pushbox/transport/terminal"
)

func playCommand() *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Play a local game in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "Profile to play with (default: the profile directory's default)",
				Sources: cli.EnvVars("PUSHBOX_PROFILE"),
			},
			profileDirFlag(),
			journalDirFlag(""),
			&cli.BoolFlag{
				Name:  "screen",
				Usage: "Use the full-screen view (arrow keys work, Esc quits)",
			},
			&cli.BoolFlag{
				Name:  "sound",
				Usage: "Play a tone on pushes and blocked moves",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Value: "pushbox.log",
				Usage: "Where logs go while the full-screen view is active",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runPlay(ctx, optionsFrom(cmd), cmd.String("profile"), cmd.Bool("screen"), cmd.Bool("sound"), cmd.String("log-file"))
		},
	}
}

// loadPlayProfile resolves the profile for a local game. Without a profile
// directory the built-in classic profile is used, unless one was asked for by
// name.
func loadPlayProfile(dir, name string) (*engine.Profile, error) {
	profiles, err := config.NewManager(dir)
	if err != nil {
		if name == "" {
			return engine.DefaultProfile(), nil
		}
		return nil, err
	}
	if name == "" {
		return profiles.GetDefault(), nil
	}
	return profiles.LoadProfile(name)
}

// journalHook appends every move of a local game to journal.
func journalHook(journal session.MoveJournal, sessionID, profile string) func(engine.Move) {
	seq := 0
	return func(m engine.Move) {
		seq++
		mv := m
		err := journal.Append(session.JournalEntry{
			SessionID: sessionID,
			Event:     session.EventMove,
			Seq:       seq,
			Profile:   profile,
			Move:      &mv,
		})
		if err != nil {
			log.Printf("Warning: failed to journal move: %v", err)
		}
	}
}

func runPlay(ctx context.Context, opts Options, profileName string, fullScreen, sound bool, logFile string) error {
	profile, err := loadPlayProfile(opts.ProfileDir, profileName)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	eng, err := engine.NewEngine(profile)
	if err != nil {
		return err
	}

	var runOpts []terminal.Option

	if opts.JournalDir != "" {
		journal, err := session.NewFileJournal(opts.JournalDir)
		if err != nil {
			return err
		}
		sessionID := "local-" + uuid.NewString()[:8]
		if err := journal.Append(session.JournalEntry{
			SessionID: sessionID,
			Event:     session.EventCreated,
			Profile:   profile.Name,
		}); err != nil {
			return err
		}
		runOpts = append(runOpts, terminal.WithMoveHook(journalHook(journal, sessionID, profile.Name)))
		log.Printf("Journaling to %s as %s", opts.JournalDir, sessionID)
	}

	if sound {
		chime, err := terminal.NewBeepChime()
		if err != nil {
			log.Printf("Warning: sound disabled: %v", err)
		} else {
			runOpts = append(runOpts, terminal.WithChime(chime))
		}
	}

	if !fullScreen {
		return terminal.Run(ctx, eng, terminal.NewRuneInput(os.Stdin), terminal.NewTextRenderer(os.Stdout), runOpts...)
	}

	// The screen owns the terminal; logging there would corrupt the view.
	f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
	} else {
		defer f.Close()
		log.SetOutput(f)
	}

	screen, err := terminal.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Close()

	return terminal.Run(ctx, eng, screen, screen, runOpts...)
}
