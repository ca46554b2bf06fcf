package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/movieweb/internal/models"
)

func (c *CLI) reviewsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Manage movie reviews",
	}
	cmd.AddCommand(
		c.reviewsGetCmd(),
		c.reviewsSetCmd(),
		c.reviewsDeleteCmd(),
		c.reviewsListCmd(),
	)
	return cmd
}

type reviewView struct {
	UserID  int64  `json:"user_id"`
	MovieID string `json:"movie_id"`
	Text    string `json:"text"`
}

func (c *CLI) reviewsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id> <movie-id>",
		Short: "Show a user's review of a movie",
		Long:  `Show the review text; it is empty when the user has not reviewed the movie.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			text, err := c.store().GetUsersMovieReview(cmd.Context(), userID, args[1])
			if err != nil {
				return err
			}
			return printJSON(c.out, reviewView{UserID: userID, MovieID: args[1], Text: text})
		},
	}
}

func (c *CLI) reviewsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <user-id> <movie-id> <text...>",
		Short: "Create or replace a user's review of a movie",
		Long:  `Create or replace the review. The text must be at least 50 characters long.`,
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			if err := c.store().UpdateUsersMovieReview(cmd.Context(), userID, args[1], text); err != nil {
				return err
			}
			return printJSON(c.out, reviewView{UserID: userID, MovieID: args[1], Text: text})
		},
	}
}

func (c *CLI) reviewsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id> <movie-id>",
		Short: "Delete a user's review of a movie",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			if err := c.store().DeleteReview(cmd.Context(), userID, args[1]); err != nil {
				return err
			}
			return printJSON(c.out, map[string]any{"deleted": true, "user_id": userID, "movie_id": args[1]})
		},
	}
}

func (c *CLI) reviewsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <movie-id>",
		Short: "List all reviews of a movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := c.store().GetAllReviewsForMovie(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if reviews == nil {
				reviews = []models.MovieReview{}
			}
			return printJSON(c.out, reviews)
		},
	}
}
