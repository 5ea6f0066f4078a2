package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"resync/internal/catalog"
	"resync/internal/config"
	"resync/internal/logger"
	"resync/internal/protocol"
	"resync/internal/transfer"
	"resync/internal/ui"
	"resync/pkg/utils"
)

// ClientApp implements the interactive and one-shot client commands
type ClientApp struct {
	config   *config.Config
	ui       *ui.ConsoleUI
	progress transfer.ProgressReporter
	connect  func(ctx context.Context) (FileClient, error)
}

// NewClientApp creates a new client application
func NewClientApp(cfg *config.Config, console *ui.ConsoleUI, progress transfer.ProgressReporter) *ClientApp {
	a := &ClientApp{
		config:   cfg,
		ui:       console,
		progress: progress,
	}
	a.connect = a.dial
	return a
}

func (a *ClientApp) dial(ctx context.Context) (FileClient, error) {
	destDir, err := utils.EnsureDirectory(a.config.Client.DestDir)
	if err != nil {
		return nil, fmt.Errorf("invalid destination directory: %w", err)
	}

	addr := net.JoinHostPort(a.config.Client.Host, strconv.Itoa(a.config.Client.Port))
	client, err := transfer.Dial(ctx, addr, transfer.Options{
		Dir:          destDir,
		ListCapacity: a.config.Protocol.ListCapacity,
		Progress:     a.progress,
		DialTimeout:  a.config.Client.DialTimeout,
		IOTimeout:    a.config.Client.IOTimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Run shows the menu until the user exits, input ends or the connection fails
func (a *ClientApp) Run(ctx context.Context) error {
	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	for {
		choice, err := a.ui.Menu(ctx)
		if err != nil {
			if errors.Is(err, ui.ErrInputClosed) {
				return nil
			}
			return err
		}

		switch choice {
		case ui.ChoiceDownload:
			if err = a.list(ctx, client); err != nil {
				break
			}
			var name string
			if name, err = a.ui.Prompt(ctx, "Enter the file name to download: "); err != nil {
				break
			}
			err = a.download(ctx, client, name)

		case ui.ChoiceUpload:
			var name string
			if name, err = a.ui.Prompt(ctx, "Enter the file name to upload: "); err != nil {
				break
			}
			err = a.upload(ctx, client, name)

		case ui.ChoiceList:
			err = a.list(ctx, client)

		case ui.ChoiceExit:
			a.ui.ShowMessage("Exiting the program.")
			return nil

		default:
			logger.Log(logger.LevelError, "Invalid option selected")
			a.ui.ShowMessage("Invalid option. Please try again.")
		}

		if err != nil {
			if !recoverable(err) {
				return err
			}
			a.ui.ShowMessage(fmt.Sprintf("Error: %v", err))
		}
	}
}

// RunList prints the server's listing once
func (a *ClientApp) RunList(ctx context.Context) error {
	return a.once(ctx, func(client FileClient) error {
		return a.list(ctx, client)
	})
}

// RunDownload downloads one file
func (a *ClientApp) RunDownload(ctx context.Context, name string) error {
	return a.once(ctx, func(client FileClient) error {
		return a.download(ctx, client, name)
	})
}

// RunUpload uploads one file
func (a *ClientApp) RunUpload(ctx context.Context, name string) error {
	return a.once(ctx, func(client FileClient) error {
		return a.upload(ctx, client, name)
	})
}

func (a *ClientApp) once(ctx context.Context, fn func(FileClient) error) error {
	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

func (a *ClientApp) list(ctx context.Context, client FileClient) error {
	listing, err := client.List(ctx)
	if err != nil {
		return err
	}
	a.ui.ShowListing(listing)
	return nil
}

func (a *ClientApp) download(ctx context.Context, client FileClient, name string) error {
	result, err := client.Download(ctx, name)
	if err != nil {
		if errors.Is(err, transfer.ErrFileNotFound) {
			a.ui.ShowMessage(fmt.Sprintf("File '%s' not found on server.", name))
			return nil
		}
		return err
	}

	switch result.Decision {
	case protocol.StatusUnchanged:
		a.ui.ShowMessage(fmt.Sprintf("Resumed '%s' from byte %d", name, result.State.LocalOffset))
	case protocol.StatusChanged:
		a.ui.ShowMessage(fmt.Sprintf("Local copy of '%s' differed from the server, downloaded again", name))
	case protocol.StatusServerError:
		a.ui.ShowMessage(fmt.Sprintf("Server could not verify '%s', downloaded again", name))
	}
	a.ui.ShowMessage(fmt.Sprintf("Download complete for '%s' (%s received, %s total)",
		name, utils.FormatFileSize(result.Received), utils.FormatFileSize(result.State.TotalSize)))
	return nil
}

func (a *ClientApp) upload(ctx context.Context, client FileClient, name string) error {
	if err := client.Upload(ctx, name); err != nil {
		return err
	}
	a.ui.ShowMessage(fmt.Sprintf("File upload complete for '%s'", name))
	return nil
}

// recoverable reports whether the connection is still in frame after err.
// Local file errors and refusals qualify; transport errors and anything the
// client aborted the connection over do not.
func recoverable(err error) bool {
	if errors.Is(err, transfer.ErrConnectionAborted) {
		return false
	}
	var pathErr *fs.PathError
	return errors.Is(err, transfer.ErrRejected) ||
		errors.Is(err, catalog.ErrInvalidName) ||
		errors.Is(err, catalog.ErrNotFound) ||
		errors.Is(err, protocol.ErrFilenameTooLong) ||
		errors.As(err, &pathErr)
}
