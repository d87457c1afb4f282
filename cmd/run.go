package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/missionhq/internal/catalog"
	"github.com/abhisek/missionhq/internal/config"
	"github.com/abhisek/missionhq/internal/confirm"
	"github.com/abhisek/missionhq/internal/logger"
	"github.com/abhisek/missionhq/internal/progress"
	"github.com/abhisek/missionhq/internal/store"
	"github.com/abhisek/missionhq/internal/wallet"
)

// app holds the services every command is built from.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	store   *store.Store
	catalog *catalog.Service
	tracker *progress.Tracker
	wallet  *wallet.Service
	confirm *confirm.Service
}

type appOptions struct {
	// quiet discards logs, for commands that own the terminal.
	quiet bool
}

// openApp loads configuration, opens the store and builds the services.
// Callers must Close the app.
func openApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Nop()
	if !opts.quiet {
		if log, err = logger.New(cfg.LogMode); err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	cat, err := catalog.NewService(st.CampaignRepo(), cfg.GraphCacheSize, catalog.WithLogger(log))
	if err != nil {
		st.Close()
		return nil, err
	}
	tracker := progress.NewTracker(st.ProgressStore(), cat, progress.WithLogger(log))

	secret := cfg.QRSecret
	if secret == "" {
		if secret, err = ephemeralSecret(); err != nil {
			st.Close()
			return nil, err
		}
		log.Warn("no QR secret configured, codes are only valid for this process",
			"env", config.Prefix+"QR_SECRET")
	}
	signer, err := confirm.NewSigner(secret, cfg.QRTTL, nil)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create qr signer: %w", err)
	}

	return &app{
		cfg:     cfg,
		log:     log,
		store:   st,
		catalog: cat,
		tracker: tracker,
		wallet:  wallet.NewService(st.Ledger(), wallet.WithLogger(log)),
		confirm: confirm.NewService(signer, cat, tracker, log),
	}, nil
}

func (a *app) Close() {
	a.log.Sync()
	a.store.Close()
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate qr secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
