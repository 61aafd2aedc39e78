package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// ListTasks lists the tasks of a case.
func (s *Service) ListTasks(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_tasks", "listing tasks", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_tasks", fmt.Sprintf("Listing tasks for case %d", caseID), outbound.Args{
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		// Task listings nest under "tasks", which is not a common collection key.
		items, ok := normalize.Nested(data, "tasks")
		if !ok {
			items = normalize.AsList(data)
		}
		if len(items) == 0 {
			return fmt.Sprintf("No tasks found for case %d.", caseID), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Tasks for Case %d:\n", caseID)
		for _, t := range items {
			fmt.Fprintf(&b, "- ID: %s, Title: %s, Status: %s, Assignees: %s\n",
				field(t, "task_id", "id"),
				field(t, "task_title", "title", "name"),
				field(t, "task_status", "status", "status_name", "task_status_name"),
				field(t, "assignees", "task_assignees"),
			)
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}

// NewTask describes a task to add.
type NewTask struct {
	CaseID           int            `json:"case_id" jsonschema:"case id"`
	Title            string         `json:"title" jsonschema:"task title"`
	Status           any            `json:"status" jsonschema:"task status name or id"`
	Assignees        []any          `json:"assignees" jsonschema:"assignee logins or user ids"`
	Description      *string        `json:"description,omitempty" jsonschema:"task description"`
	Tags             []string       `json:"tags,omitempty" jsonschema:"task tags"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
}

// AddTask adds a task to a case.
func (s *Service) AddTask(ctx context.Context, t NewTask) (string, error) {
	return s.run(ctx, "add_task", "adding task", func(ctx context.Context, sess outbound.Session) (string, error) {
		assignees := t.Assignees
		if assignees == nil {
			assignees = []any{}
		}
		data, err := call(ctx, sess, "add_task", fmt.Sprintf("Adding task to case %d", t.CaseID), outbound.Args{
			{Key: "title", Value: t.Title},
			{Key: "status", Value: t.Status},
			{Key: "assignees", Value: assignees},
			{Key: "description", Value: opt(t.Description)},
			{Key: "tags", Value: optList(t.Tags)},
			{Key: "custom_attributes", Value: optMap(t.CustomAttributes)},
			{Key: "cid", Value: t.CaseID},
		})
		if err != nil {
			return "", err
		}
		return "Task added. ID: " + field(data, "task_id", "id").String(), nil
	})
}

// UpdateTask applies a bulk update to a task.
func (s *Service) UpdateTask(ctx context.Context, caseID, taskID int, fields map[string]any) (string, error) {
	return s.run(ctx, "update_task", "updating task", func(ctx context.Context, sess outbound.Session) (string, error) {
		args := withFields(outbound.Args{{Key: "task_id", Value: taskID}, {Key: "cid", Value: caseID}}, fields)
		if _, err := call(ctx, sess, "update_task", fmt.Sprintf("Updating task %d", taskID), args); err != nil {
			return "", err
		}
		return fmt.Sprintf("Task %d updated.", taskID), nil
	})
}

// DeleteTask deletes a task.
func (s *Service) DeleteTask(ctx context.Context, caseID, taskID int) (string, error) {
	return s.run(ctx, "delete_task", "deleting task", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "delete_task", fmt.Sprintf("Deleting task %d", taskID), outbound.Args{
			{Key: "task_id", Value: taskID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task %d deleted.", taskID), nil
	})
}

// AddTaskComment comments on a task.
func (s *Service) AddTaskComment(ctx context.Context, caseID, taskID int, comment string) (string, error) {
	return s.run(ctx, "add_task_comment", "adding task comment", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "add_task_comment", fmt.Sprintf("Adding comment to task %d", taskID), outbound.Args{
			{Key: "task_id", Value: taskID},
			{Key: "comment", Value: comment},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Comment added to task %d.", taskID), nil
	})
}

// ListTaskComments lists the comments of a task.
func (s *Service) ListTaskComments(ctx context.Context, caseID, taskID int) (string, error) {
	return s.run(ctx, "list_task_comments", "listing task comments", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_task_comments", fmt.Sprintf("Listing task comments for task %d", taskID), outbound.Args{
			{Key: "task_id", Value: taskID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No comments found for task %d.", taskID), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Comments for task %d:\n", taskID)
		for _, c := range items {
			fmt.Fprintf(&b, "- ID: %s, Author: %s, Comment: %s\n",
				field(c, "comment_id", "id"),
				commentAuthor(c, "user", "author"),
				field(c, "comment_content", "comment"),
			)
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}

// UpdateTaskComment replaces the text of a task comment.
func (s *Service) UpdateTaskComment(ctx context.Context, caseID, taskID, commentID int, comment string) (string, error) {
	return s.run(ctx, "update_task_comment", "updating task comment", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "update_task_comment", fmt.Sprintf("Updating comment %d on task %d", commentID, taskID), outbound.Args{
			{Key: "task_id", Value: taskID},
			{Key: "comment_id", Value: commentID},
			{Key: "comment", Value: comment},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task comment %d updated.", commentID), nil
	})
}

// DeleteTaskComment deletes a task comment.
func (s *Service) DeleteTaskComment(ctx context.Context, caseID, taskID, commentID int) (string, error) {
	return s.run(ctx, "delete_task_comment", "deleting task comment", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "delete_task_comment", fmt.Sprintf("Deleting comment %d on task %d", commentID, taskID), outbound.Args{
			{Key: "task_id", Value: taskID},
			{Key: "comment_id", Value: commentID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Task comment %d deleted.", commentID), nil
	})
}
