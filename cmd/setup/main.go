// Command setup provisions a OneServis database: it creates the schema and
// the initial administrator. With -hash it reads a password from stdin and
// only prints its bcrypt hash, for migrating a legacy account by hand.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-oneservis/internal/config"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/personnel"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/database"
	"github.com/ovaphlow/pitchfork/service-oneservis/pkg/utilities"
)

func main() {
	hash := flag.Bool("hash", false, "read a password from stdin, print its bcrypt hash and exit")
	flag.Parse()

	_ = godotenv.Load()

	if *hash {
		pw, err := readPassword(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read password: %v\n", err)
			os.Exit(1)
		}
		h, err := personnel.NewService(nil, nil, nil, nil).HashPassword(pw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(h)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	lg, err := utilities.Init(cfg.Logger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	sugar := lg.Sugar()

	db, err := database.Connect(cfg.Database())
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.EnsureSchema(ctx, db); err != nil {
		sugar.Fatalf("schema: %v", err)
	}
	sugar.Infow("schema ready", "tables", database.CoreTables)

	created, err := personnel.NewService(db, nil, nil, sugar).EnsureInitialAdmin(ctx, personnel.InitialAdmin{
		Email:    cfg.Bootstrap.AdminEmail,
		Password: cfg.Bootstrap.AdminPassword,
	})
	if err != nil {
		sugar.Fatalf("initial admin: %v", err)
	}
	if created {
		sugar.Infow("initial admin created", "email", cfg.Bootstrap.AdminEmail)
	} else {
		sugar.Info("an admin already exists, nothing to do")
	}
}

// readPassword takes the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}
