package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tunesreloaded/podlib/internal/errmsg"
	"github.com/tunesreloaded/podlib/internal/session"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newPlaylistListCommand(ctx))
	cmd.AddCommand(newPlaylistShowCommand(ctx))
	cmd.AddCommand(newPlaylistCreateCommand(ctx))
	cmd.AddCommand(newPlaylistRenameCommand(ctx))
	cmd.AddCommand(newPlaylistDeleteCommand(ctx))
	cmd.AddCommand(newPlaylistAddCommand(ctx))
	cmd.AddCommand(newPlaylistRemoveCommand(ctx))
	return cmd
}

func newPlaylistListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			rows := make([][]string, 0, sess.PlaylistCount())
			for _, pl := range sess.Playlists() {
				rows = append(rows, playlistRow(pl))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Name", "Tracks", "Type"},
				rows, 0, 2,
			))
			return nil
		},
	}
}

func newPlaylistShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show INDEX",
		Short: "List the tracks of a playlist",
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
			members, err := sess.PlaylistTracks(index)
			if err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaylistShow, args[0], err))
			}

			rows := make([][]string, 0, len(members))
			for _, tr := range members {
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

func newPlaylistCreateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.open()
			if err != nil {
				return err
			}
			defer sess.Close()

			index, err := sess.CreatePlaylist(args[0])
			if err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaylistCreate, args[0], err))
			}
			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created playlist %d: %s\n", index, args[0])
			return nil
		},
	}
}

func newPlaylistRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename INDEX NAME",
		Short: "Rename a playlist",
		Args:  cobra.ExactArgs(2),
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
			if err := sess.RenamePlaylist(index, args[1]); err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaylistRename, args[0], err))
			}
			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			return nil
		},
	}
}

func newPlaylistDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete a playlist",
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
			if err := sess.DeletePlaylist(index); err != nil {
				return fmt.Errorf("%s", errmsg.FormatWith(errmsg.OpPlaylistDelete, args[0], err))
			}
			if err := sess.Commit(); err != nil {
				return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
			}
			return nil
		},
	}
}

func newPlaylistAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add PLAYLIST TRACK",
		Short: "Add a track to a playlist by index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playlistMembership(ctx, args, true)
		},
	}
}

func newPlaylistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PLAYLIST TRACK",
		Short: "Remove a track from a playlist by index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playlistMembership(ctx, args, false)
		},
	}
}

func playlistMembership(ctx *commandContext, args []string, add bool) error {
	sess, err := ctx.open()
	if err != nil {
		return err
	}
	defer sess.Close()

	playlistIndex, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	trackIndex, err := parseIndex(args[1])
	if err != nil {
		return err
	}

	op := errmsg.OpPlaylistAddTrack
	if add {
		err = sess.PlaylistAddTrack(playlistIndex, trackIndex)
	} else {
		op = errmsg.OpPlaylistRemove
		err = sess.PlaylistRemoveTrack(playlistIndex, trackIndex)
	}
	if err != nil {
		return fmt.Errorf("%s", errmsg.FormatWith(op, args[0], err))
	}
	if err := sess.Commit(); err != nil {
		return fmt.Errorf("%s", errmsg.Format(errmsg.OpCommit, err))
	}
	return nil
}

func playlistRow(pl session.PlaylistInfo) []string {
	kind := ""
	switch {
	case pl.Master:
		kind = "master"
	case pl.Smart:
		kind = "smart"
	}
	return []string{
		strconv.Itoa(pl.Index),
		pl.Name,
		strconv.Itoa(pl.TrackCount),
		kind,
	}
}
