package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/movieweb/internal/common"
	"github.com/dmitrijs2005/movieweb/internal/models"
)

func (c *CLI) moviesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movies",
		Short: "Manage users' movie lists",
	}
	cmd.AddCommand(
		c.moviesListCmd(),
		c.moviesAddCmd(),
		c.moviesShowCmd(),
		c.moviesGetCmd(),
		c.moviesUpdateCmd(),
		c.moviesDeleteCmd(),
	)
	return cmd
}

func (c *CLI) moviesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <user-id>",
		Short: "List a user's movies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			movies, err := c.store().GetUserMovies(cmd.Context(), id)
			if err != nil {
				return err
			}
			if movies == nil {
				movies = []models.Movie{}
			}
			return printJSON(c.out, movies)
		},
	}
}

func (c *CLI) moviesAddCmd() *cobra.Command {
	var m models.Movie

	cmd := &cobra.Command{
		Use:   "add <user-id> [title...]",
		Short: "Add a movie to a user's list",
		Long: `Look the title up in the OMDb catalog and add the result to the user's list.
With --id the movie is added as given by the flags, without a catalog lookup.
Adding a movie the user already has changes nothing.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}

			if m.ID == "" {
				title := strings.Join(args[1:], " ")
				added, err := c.app.AddMovieByTitle(cmd.Context(), userID, title)
				if err != nil {
					return err
				}
				return printJSON(c.out, added)
			}

			if len(args) > 1 && m.Name == "" {
				m.Name = strings.Join(args[1:], " ")
			}
			if err := c.store().AddMovieToUser(cmd.Context(), userID, m); err != nil {
				return err
			}
			added, err := c.store().GetUserMovie(cmd.Context(), userID, m.ID)
			if err != nil {
				return err
			}
			return printJSON(c.out, added)
		},
	}

	f := cmd.Flags()
	f.StringVar(&m.ID, "id", "", "catalog id, skips the OMDb lookup")
	f.StringVar(&m.Name, "title", "", "movie title")
	f.StringVar(&m.Director, "director", "", "director")
	f.StringVar(&m.Year, "year", "", "release year or range")
	f.StringVar(&m.Rating, "rating", "", "rating from 1 to 10")
	f.StringVar(&m.ImdbLink, "imdb-link", "", "IMDb page")
	f.StringVar(&m.ImageLink, "image-link", "", "poster URL")
	return cmd
}

func (c *CLI) moviesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id> <movie-id>",
		Short: "Show a movie from a user's list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			m, err := c.store().GetUserMovie(cmd.Context(), userID, args[1])
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("%w: user %d has no movie %s", common.ErrNotFound, userID, args[1])
			}
			return printJSON(c.out, m)
		},
	}
}

func (c *CLI) moviesGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <movie-id>",
		Short: "Show a stored movie regardless of owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := c.store().GetMovie(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("%w: movie %s", common.ErrNotFound, args[0])
			}
			return printJSON(c.out, m)
		},
	}
}

func (c *CLI) moviesUpdateCmd() *cobra.Command {
	var upd models.MovieUpdate

	cmd := &cobra.Command{
		Use:   "update <user-id> <movie-id>",
		Short: "Update director, year and rating of a movie",
		Long: `Update an owned movie. --year and --rating are required; the year may be a
range such as 1990–1995 (en dash). The change is seen by every user who has
the movie. A --title differing from the stored one is rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			m, err := c.store().UpdateMovieOfUser(cmd.Context(), userID, args[1], upd)
			if err != nil {
				return err
			}
			return printJSON(c.out, m)
		},
	}

	f := cmd.Flags()
	f.StringVar(&upd.Name, "title", "", "current title, must not change")
	f.StringVar(&upd.Director, "director", "", "director")
	f.StringVar(&upd.Year, "year", "", "release year or range")
	f.StringVar(&upd.Rating, "rating", "", "rating from 1 to 10")
	return cmd
}

func (c *CLI) moviesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id> <movie-id>",
		Short: "Remove a movie from a user's list",
		Long: `Remove the movie and the user's review of it from the list. The movie
itself is deleted when no other user has it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			m, err := c.store().DeleteMovieOfUser(cmd.Context(), userID, args[1])
			if err != nil {
				return err
			}
			return printJSON(c.out, m)
		},
	}
}
