// Package cli is the one-shot command line front end: fetch a channel's
// transcripts into one file without starting the web server.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"thirdcoast.systems/channelscribe/internal/config"
	"thirdcoast.systems/channelscribe/internal/drive"
	"thirdcoast.systems/channelscribe/internal/pipeline"
	"thirdcoast.systems/channelscribe/internal/transcript"
	"thirdcoast.systems/channelscribe/internal/videoid"
	"thirdcoast.systems/channelscribe/pkg/utils/filename"
	"thirdcoast.systems/channelscribe/pkg/utils/format"
	"thirdcoast.systems/channelscribe/pkg/ytdlp"
)

// DriveClient is what the CLI needs from Google Drive. *drive.Uploader
// satisfies it.
type DriveClient interface {
	Authorized() bool
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) error
	Upload(ctx context.Context, filePath, folderID string) (string, error)
}

// VersionReporter reports the version of the channel listing tool.
type VersionReporter interface {
	Version(ctx context.Context) (string, error)
}

// Deps builds the collaborators from the loaded configuration.
type Deps struct {
	LoadConfig func(ctx context.Context) (*config.Config, error)
	Lister     func(conf *config.Config) pipeline.Lister
	Fetcher    func(conf *config.Config) pipeline.Fetcher
	Drive      func(conf *config.Config) (DriveClient, error)
	Version    func(conf *config.Config) VersionReporter
}

// DefaultDeps wires yt-dlp, the YouTube transcript client and Google Drive.
func DefaultDeps() Deps {
	return Deps{
		LoadConfig: config.LoadConfig,
		Lister: func(conf *config.Config) pipeline.Lister {
			return ytdlp.New(conf.YtDlpPath)
		},
		Fetcher: func(conf *config.Config) pipeline.Fetcher {
			return transcript.New(conf.LanguageTag())
		},
		Drive: func(conf *config.Config) (DriveClient, error) {
			redirect := conf.DriveRedirectURL
			if redirect == "" {
				redirect = fmt.Sprintf("http://localhost:%d/drive/callback", conf.WebServerPort)
			}
			opts, err := conf.DriveOptions()
			if err != nil {
				return nil, err
			}
			return drive.NewUploader(conf.DriveCredentialsFile, conf.DriveTokenFile, redirect, opts...)
		},
		Version: func(conf *config.Config) VersionReporter {
			return ytdlp.New(conf.YtDlpPath)
		},
	}
}

type fetchOptions struct {
	out    string
	upload bool
}

func NewRootCommand(d Deps) *cobra.Command {
	var conf *config.Config

	root := &cobra.Command{
		Use:           "channelscribe",
		Short:         "Combine every transcript of a YouTube channel into one text file",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := d.LoadConfig(cmd.Context())
			if err != nil {
				return err
			}
			conf = c
			return nil
		},
	}

	var opts fetchOptions
	fetchCmd := &cobra.Command{
		Use:   "fetch <channel-url>",
		Short: "Fetch all transcripts of a channel and combine them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), cmd.OutOrStdout(), d, conf, args[0], opts)
		},
	}
	fetchCmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file name (default: DEFAULT_OUTPUT_FILE)")
	fetchCmd.Flags().BoolVar(&opts.upload, "upload", false, "Upload the combined file to Google Drive")

	authCmd := &cobra.Command{
		Use:   "drive-auth",
		Short: "Authorize Google Drive uploads from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDriveAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), d, conf)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the yt-dlp version in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := d.Version(conf).Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("yt-dlp is not usable: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "yt-dlp", v)
			return nil
		},
	}

	root.AddCommand(fetchCmd, authCmd, versionCmd)
	return root
}

func runFetch(ctx context.Context, out io.Writer, d Deps, conf *config.Config, rawURL string, opts fetchOptions) error {
	channelURL, err := videoid.NormalizeChannelURL(rawURL)
	if err != nil {
		return fmt.Errorf("%q: %w", rawURL, err)
	}

	// Fail before the long part of the run if the upload cannot happen.
	var dc DriveClient
	if opts.upload {
		if dc, err = d.Drive(conf); err != nil {
			return fmt.Errorf("google drive: %w", err)
		}
		if !dc.Authorized() {
			return fmt.Errorf("google drive is not authorized; run `channelscribe drive-auth` first")
		}
	}

	finalFile := filepath.Join(conf.ResultsDir, filename.OutputFile(opts.out, conf.DefaultOutputFile))
	p := &pipeline.Pipeline{
		Lister:    d.Lister(conf),
		Fetcher:   d.Fetcher(conf),
		OutputDir: conf.OutputDir,
	}

	res, err := p.Run(ctx, channelURL, finalFile, func(pr pipeline.Progress) {
		if pr.Stage == pipeline.StageFetching {
			slog.Info("progress", "video", pr.Index, "total", pr.Total, "percent", format.Percent(pr.Index, pr.Total), "video_id", pr.VideoID)
		}
	})
	if err != nil {
		return err
	}
	for _, cerr := range res.ClearErrors {
		slog.Warn("could not clear old transcript", "error", cerr)
	}

	fmt.Fprintf(out, "%s: %s of %s videos had a transcript (%s, %s)\n",
		res.FinalFile, format.Count(len(res.Written)), format.Count(len(res.VideoIDs)),
		format.Bytes(res.Bytes), format.RunDuration(res.Duration()))

	if dc == nil {
		return nil
	}
	id, err := dc.Upload(ctx, res.FinalFile, conf.DriveFolderID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "uploaded:", drive.ViewURL(id))
	return nil
}

func runDriveAuth(ctx context.Context, in io.Reader, out io.Writer, d Deps, conf *config.Config) error {
	dc, err := d.Drive(conf)
	if err != nil {
		return fmt.Errorf("google drive: %w", err)
	}

	fmt.Fprintln(out, "Open this link, grant access, then paste the \"code\" parameter of the page you land on:")
	fmt.Fprintln(out, dc.AuthCodeURL("cli"))
	fmt.Fprint(out, "code: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return errors.New("no authorization code entered")
	}
	if err := dc.Exchange(ctx, code); err != nil {
		return err
	}
	fmt.Fprintln(out, "Google Drive connected.")
	return nil
}
