package main

import (
	"fmt"
	"strings"
	"time"

	"todosync/internal/domain"
	"todosync/internal/local"

	"github.com/spf13/cobra"
)

var (
	addDesc     string
	addPriority string
	addDue      string

	editTitle    string
	editDesc     string
	editPriority string
	editDue      string
	editDone     bool
	editNotDone  bool
)

func init() {
	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "description")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "", "low, medium or high (default medium)")
	addCmd.Flags().StringVar(&addDue, "due", "", "due date, YYYY-MM-DD or RFC3339")

	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	editCmd.Flags().StringVarP(&editDesc, "desc", "d", "", "new description")
	editCmd.Flags().StringVarP(&editPriority, "priority", "p", "", "low, medium or high")
	editCmd.Flags().StringVar(&editDue, "due", "", "new due date, YYYY-MM-DD or RFC3339")
	editCmd.Flags().BoolVar(&editDone, "done", false, "mark completed")
	editCmd.Flags().BoolVar(&editNotDone, "not-done", false, "mark not completed")
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all todos, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		todos, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(todos) == 0 {
			fmt.Println("no todos")
			return nil
		}
		for _, t := range todos {
			printTodo(t)
		}
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a todo",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		p := local.CreateParams{Title: title, Description: addDesc}
		if addPriority != "" {
			pr, err := domain.ParsePriority(addPriority)
			if err != nil {
				return err
			}
			p.Priority = pr
		}
		if addDue != "" {
			due, err := parseDue(addDue)
			if err != nil {
				return err
			}
			p.DueDate = &due
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		t, err := store.Create(cmd.Context(), p)
		if err != nil {
			return err
		}
		printTodo(t)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update fields of a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var patch local.Patch
		if cmd.Flags().Changed("title") {
			title := strings.TrimSpace(editTitle)
			if title == "" {
				return fmt.Errorf("title must not be empty")
			}
			patch.Title = &title
		}
		if cmd.Flags().Changed("desc") {
			patch.Description = &editDesc
		}
		if cmd.Flags().Changed("priority") {
			pr, err := domain.ParsePriority(editPriority)
			if err != nil {
				return err
			}
			patch.Priority = &pr
		}
		if cmd.Flags().Changed("due") {
			due, err := parseDue(editDue)
			if err != nil {
				return err
			}
			patch.DueDate = &due
		}
		if editDone && editNotDone {
			return fmt.Errorf("--done and --not-done are mutually exclusive")
		}
		if editDone || editNotDone {
			v := editDone
			patch.Completed = &v
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		t, err := store.Update(cmd.Context(), args[0], patch)
		if err != nil {
			return err
		}
		printTodo(t)
		return nil
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle completion of a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		t, err := store.Toggle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printTodo(t)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(cmd.Context(), args[0])
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every completed todo",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		remaining, err := store.ClearCompleted(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d todo(s) remaining\n", len(remaining))
		return nil
	},
}

func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("due date must be YYYY-MM-DD or RFC3339, got %q", s)
}

func printTodo(t domain.Todo) {
	mark := " "
	if t.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("[%s] %s  %s (%s)", mark, t.ID, t.Title, t.Priority)
	if t.DueDate != nil {
		line += "  due " + t.DueDate.Format("2006-01-02")
	}
	fmt.Println(line)
}
