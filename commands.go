package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tunesreloaded/podlib/internal/config"
	"github.com/tunesreloaded/podlib/internal/devicedb"
	"github.com/tunesreloaded/podlib/internal/errmsg"
	"github.com/tunesreloaded/podlib/internal/logging"
	"github.com/tunesreloaded/podlib/internal/session"
	"github.com/tunesreloaded/podlib/internal/state"
	"github.com/tunesreloaded/podlib/internal/tags"
)

// commandContext carries lazily initialized config, logger and session
// shared by all commands.
type commandContext struct {
	mountFlag   *string
	verboseFlag *bool

	cfg  *config.Config
	log  *slog.Logger
	sess *session.Session
}

func (c *commandContext) ensure() error {
	if c.cfg != nil {
		return nil
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpInitialize, err))
	}
	c.cfg = cfg

	level := cfg.Log.Level
	if *c.verboseFlag {
		level = "debug"
	}
	c.log = logging.New(os.Stderr, level, cfg.Log.Format)
	c.sess = session.New(devicedb.NewSQLiteStore(c.log), c.log)
	return nil
}

// mountpoint resolves the device mountpoint: flag first, then config,
// then the most recently used device.
func (c *commandContext) mountpoint() (string, error) {
	if *c.mountFlag != "" {
		return *c.mountFlag, nil
	}
	if c.cfg.Mountpoint != "" {
		return c.cfg.Mountpoint, nil
	}
	if mgr, err := state.Open(); err == nil {
		defer mgr.Close()
		if mp, err := mgr.LastUsedMountpoint(); err == nil && mp != "" {
			c.log.Debug("using last used mountpoint", "mountpoint", mp)
			return mp, nil
		}
	}
	return "", fmt.Errorf("no mountpoint given (use --mount or set it in config.toml)")
}

func (c *commandContext) open() (*session.Session, error) {
	mountpoint, err := c.mountpoint()
	if err != nil {
		return nil, err
	}
	if err := c.sess.Open(mountpoint); err != nil {
		return nil, fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpDeviceOpen, mountpoint, err))
	}
	c.rememberDevice()
	return c.sess, nil
}

// rememberDevice records the open device in the recent-devices store.
// Best effort; a failure never blocks the command.
func (c *commandContext) rememberDevice() {
	mgr, err := state.Open()
	if err != nil {
		c.log.Debug("could not open state store", "error", err)
		return
	}
	defer mgr.Close()

	rec := state.DeviceRecord{
		Mountpoint: c.sess.Mountpoint(),
		Tracks:     c.sess.TrackCount(),
	}
	if info := c.sess.Device(); info != nil {
		rec.ModelName = info.ModelName
		rec.DeviceName = info.DeviceName
	}
	if err := mgr.RecordDevice(rec); err != nil {
		c.log.Debug("could not record device", "error", err)
	}
}

func newRootCommand() *cobra.Command {
	var mountFlag string
	var verboseFlag bool

	ctx := &commandContext{mountFlag: &mountFlag, verboseFlag: &verboseFlag}

	rootCmd := &cobra.Command{
		Use:           "podlib",
		Short:         "Manage the track and playlist library of a portable media device",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.ensure()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&mountFlag, "mount", "m", "", "Device mountpoint")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newDevicesCommand())
	rootCmd.AddCommand(newTracksCommand(ctx))
	rootCmd.AddCommand(newAddCommand(ctx))
	rootCmd.AddCommand(newRemoveCommand(ctx))
	rootCmd.AddCommand(newSetCommand(ctx))
	rootCmd.AddCommand(newPlaylistCommand(ctx))

	return rootCmd
}

func newInitCommand(ctx *commandContext) *cobra.Command {
	var model, name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a blank device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mountpoint, err := ctx.mountpoint()
			if err != nil {
				return err
			}
			if model == "" {
				model = ctx.cfg.Device.ModelNumber
			}
			if name == "" {
				name = ctx.cfg.Device.Name
			}
			if err := ctx.sess.InitNew(mountpoint, model, name); err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpDeviceInit, mountpoint, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized device at %s\n", mountpoint)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Device model number (e.g. MA450)")
	cmd.Flags().StringVar(&name, "name", "", "Device display name")
	return cmd
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show device and library information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Mountpoint", sess.Mountpoint()},
				{"Tracks", strconv.Itoa(sess.TrackCount())},
				{"Playlists", strconv.Itoa(sess.PlaylistCount())},
			}
			if info := sess.Device(); info != nil {
				rows = append(rows,
					[]string{"Model", info.ModelNumber},
					[]string{"Device name", info.DeviceName},
				)
				if info.Recognized {
					rows = append(rows,
						[]string{"Model name", info.ModelName},
						[]string{"Generation", info.Generation},
						[]string{"Capacity", fmt.Sprintf("%g GB", info.CapacityGB)},
					)
				}
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows))
			return nil
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List recently used devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := state.Open()
			if err != nil {
				return err
			}
			defer mgr.Close()

			records, err := mgr.RecentDevices()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.Mountpoint,
					rec.DeviceName,
					rec.ModelName,
					strconv.Itoa(rec.Tracks),
					humanize.Time(rec.LastUsed),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Mountpoint", "Name", "Model", "Tracks", "Last used"},
				rows, 3,
			))
			return nil
		},
	}
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tracks",
		Short: "List tracks on the device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			rows := make([][]string, 0, sess.TrackCount())
			for _, tr := range sess.Tracks() {
				rows = append(rows, trackRow(tr))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Title", "Artist", "Album", "Time", "Size", "On device"},
				rows, 0, 4, 5,
			))
			return nil
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add FILE...",
		Short: "Copy audio files to the device and add them to the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			for _, path := range args {
				if !tags.IsMusicFile(path) {
					return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackAdd, path, fmt.Errorf("unsupported file type")))
				}
				if err := addFile(ctx, sess, path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", path)
			}

			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			return nil
		},
	}
}

func addFile(ctx *commandContext, sess *session.Session, path string) error {
	info, err := tags.ReadWithAudio(path)
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackTags, path, err))
	}

	_, err = sess.AddTrack(session.TrackMetadata{
		Title:       info.Title,
		Artist:      info.Artist,
		Album:       info.Album,
		Genre:       info.Genre,
		FileType:    info.FileTypeDescription(),
		TrackNumber: info.TrackNumber,
		DiscNumber:  info.DiscNumber,
		Year:        info.Year,
		DurationMS:  int(info.Duration.Milliseconds()),
		Bitrate:     info.Bitrate,
		SampleRate:  info.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackAdd, path, err))
	}

	dest, err := sess.TrackDestPath(path)
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackCopy, path, err))
	}
	size, err := copyFile(path, dest)
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackCopy, path, err))
	}

	if ctx.cfg.Transfer.SkipStat {
		err = sess.FinalizeLastTrackNoStat(dest, size)
	} else {
		err = sess.FinalizeLastTrack(dest)
	}
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackFinalize, path, err))
	}
	return nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return 0, err
	}
	return n, nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm INDEX",
		Short: "Remove a track from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := sess.RemoveTrack(index); err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackRemove, args[0], err))
			}
			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			return nil
		},
	}
}

func newSetCommand(ctx *commandContext) *cobra.Command {
	var title, artist, album, genre string
	var trackNumber, year, rating int

	cmd := &cobra.Command{
		Use:   "set INDEX",
		Short: "Update track metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}

			// Only flags the user actually passed become part of the update.
			var upd session.TrackUpdate
			flags := cmd.Flags()
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("artist") {
				upd.Artist = &artist
			}
			if flags.Changed("album") {
				upd.Album = &album
			}
			if flags.Changed("genre") {
				upd.Genre = &genre
			}
			if flags.Changed("track") {
				upd.TrackNumber = &trackNumber
			}
			if flags.Changed("year") {
				upd.Year = &year
			}
			if flags.Changed("rating") {
				upd.Rating = &rating
			}

			if err := sess.UpdateTrack(index, upd); err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpTrackUpdate, args[0], err))
			}
			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Track title")
	cmd.Flags().StringVar(&artist, "artist", "", "Artist")
	cmd.Flags().StringVar(&album, "album", "", "Album")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre")
	cmd.Flags().IntVar(&trackNumber, "track", 0, "Track number")
	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating 0-100")
	return cmd
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return n, nil
}

func trackRow(tr session.TrackInfo) []string {
	onDevice := ""
	if tr.Transferred {
		onDevice = "yes"
	}
	size := ""
	if tr.Size > 0 {
		size = humanize.Bytes(uint64(tr.Size))
	}
	return []string{
		strconv.Itoa(tr.Index),
		tr.Title,
		tr.Artist,
		tr.Album,
		formatDuration(tr.DurationMS),
		size,
		onDevice,
	}
}

func formatDuration(ms int) string {
	if ms <= 0 {
		return ""
	}
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
