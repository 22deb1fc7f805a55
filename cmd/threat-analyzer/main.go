package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"

	"go.uber.org/zap"

	"github.com/emailguard/threat-analyzer/internal/adapters/filter"
	"github.com/emailguard/threat-analyzer/internal/core"
	"github.com/emailguard/threat-analyzer/internal/di"
	"github.com/emailguard/threat-analyzer/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run reads one email, analyzes it, and prints the verdict
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	classifier core.ThreatClassifier,
) error {
	defer logger.Sync()

	// Read email from file or stdin
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			logger.Error("Failed to open input file", zap.Error(err), zap.String("file", flags.InputFile))
			return err
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Error("Failed to parse email", zap.Error(err))
		return err
	}

	email, err := filter.EmailFromMessage(msg)
	if err != nil {
		logger.Error("Failed to extract email content", zap.Error(err))
		return err
	}

	if _, err := emailFilter.ProcessEmail(context.Background(), email); err != nil {
		return err
	}

	// Close any resources that need closing
	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	return nil
}
