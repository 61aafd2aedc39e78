package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Sentinel-Gate/irisgate/internal/domain/normalize"
	"github.com/Sentinel-Gate/irisgate/internal/port/outbound"
)

// defaultDirectoryName names the directory created for a case that has none.
const defaultDirectoryName = "Root Notes"

// Operation names drift between API versions; candidates are tried in order.
var (
	listDirectoryMethods     = []string{"list_notes_directories", "list_note_directories"}
	createDirectoryMethods   = []string{"add_notes_directory"}
	fallbackDirectoryMethods = []string{"add_note_directory", "create_note_directory", "add_notedirectory"}
)

var (
	directoryIDKeys   = []string{"id", "directory_id", "note_directory_id", "dir_id", "group_id"}
	directoryNameKeys = []string{"name", "directory_name", "note_directory_name", "group_title"}
	noteCountKeys     = []string{"note_count", "notes_count", "notes_nb"}
)

func (s *Service) listDirectories(ctx context.Context, sess outbound.Session, caseID int) (normalize.Dispatched, error) {
	return normalize.TryOperations(ctx, sess, normalize.Dispatch{
		Action:   fmt.Sprintf("Listing note directories for case %d", caseID),
		Methods:  listDirectoryMethods,
		Payloads: []outbound.Args{{{Key: "cid", Value: caseID}}, {{Key: "case_id", Value: caseID}}},
	})
}

// resolveDirectoryID returns directoryID when set. Otherwise it takes the
// first directory of the case, creating the default directory when the case
// has none. A zero result with ok false means nothing usable was found.
func (s *Service) resolveDirectoryID(ctx context.Context, sess outbound.Session, caseID int, directoryID *int) (int, bool) {
	if directoryID != nil {
		return *directoryID, true
	}

	listed, err := s.listDirectories(ctx, sess, caseID)
	if err == nil {
		for _, d := range normalize.AsList(listed.Data) {
			if id, ok := field(d, directoryIDKeys...).Int(); ok {
				return id, true
			}
		}
	} else {
		s.logger.Debug("note directory listing failed", "case_id", caseID, "error", err)
	}

	created, err := normalize.TryOperations(ctx, sess, normalize.Dispatch{
		Action:          fmt.Sprintf("Creating default note directory for case %d", caseID),
		Methods:         slices.Concat(createDirectoryMethods, fallbackDirectoryMethods),
		Payloads:        []outbound.Args{{{Key: "cid", Value: caseID}, {Key: "directory_name", Value: defaultDirectoryName}}},
		AllowPositional: true,
	})
	if err != nil {
		s.logger.Debug("default note directory creation failed", "case_id", caseID, "error", err)
		return 0, false
	}
	return field(created.Data, directoryIDKeys...).Int()
}

// NewNote describes a note to add.
type NewNote struct {
	CaseID           int            `json:"case_id" jsonschema:"case id"`
	Content          string         `json:"content" jsonschema:"note body (markdown)"`
	Title            string         `json:"title,omitempty" jsonschema:"note title, default Note"`
	DirectoryID      *int           `json:"directory_id,omitempty" jsonschema:"target directory; the first directory of the case when omitted"`
	GroupID          *int           `json:"group_id,omitempty" jsonschema:"deprecated alias of directory_id"`
	CustomAttributes map[string]any `json:"custom_attributes,omitempty" jsonschema:"custom attributes"`
}

// AddNote adds a note, resolving its directory when none is given.
func (s *Service) AddNote(ctx context.Context, n NewNote) (string, error) {
	return s.run(ctx, "add_note", "adding note", func(ctx context.Context, sess outbound.Session) (string, error) {
		dir := n.DirectoryID
		if dir == nil || *dir == 0 {
			dir = n.GroupID
		}
		dirID, ok := s.resolveDirectoryID(ctx, sess, n.CaseID, dir)
		if !ok {
			return "", invalid("No valid note directory_id found or created for this case")
		}
		title := n.Title
		if title == "" {
			title = "Note"
		}
		data, err := call(ctx, sess, "add_note", fmt.Sprintf("Adding note to case %d", n.CaseID), outbound.Args{
			{Key: "note_title", Value: title},
			{Key: "note_content", Value: n.Content},
			{Key: "directory_id", Value: dirID},
			{Key: "custom_attributes", Value: optMap(n.CustomAttributes)},
			{Key: "cid", Value: n.CaseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Note added to case %d. ID: %s, Directory: %d", n.CaseID, field(data, "note_id", "id"), dirID), nil
	})
}

// ListNotes lists the note directories of a case with their notes.
func (s *Service) ListNotes(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_notes", "listing notes", func(ctx context.Context, sess outbound.Session) (string, error) {
		listed, err := s.listDirectories(ctx, sess, caseID)
		if err != nil {
			return "", err
		}
		dirs := normalize.AsList(listed.Data)
		if len(dirs) == 0 {
			return fmt.Sprintf("No notes found for case %d.", caseID), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Notes for Case %d:\n", caseID)
		for _, d := range dirs {
			name := field(d, directoryNameKeys...).String()
			if name == "" || name == "None" {
				name = "(unnamed directory)"
			}
			fmt.Fprintf(&b, "- Directory %s (%s)", field(d, directoryIDKeys...), name)
			if count := field(d, noteCountKeys...); !count.IsNil() {
				fmt.Fprintf(&b, " - %s notes", count)
			}
			b.WriteString("\n")
			notes, _ := normalize.Nested(d, "notes")
			for _, note := range notes {
				fmt.Fprintf(&b, "  • ID: %s, Title: %s\n", field(note, "id", "note_id"), field(note, "title", "note_title"))
			}
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}

// ListNoteDirectories lists the note directories of a case, naming the
// operation that answered.
func (s *Service) ListNoteDirectories(ctx context.Context, caseID int) (string, error) {
	return s.run(ctx, "list_note_directories", "listing note directories", func(ctx context.Context, sess outbound.Session) (string, error) {
		listed, err := s.listDirectories(ctx, sess, caseID)
		if err != nil {
			return "", err
		}
		items := normalize.AsList(listed.Data)
		if len(items) == 0 {
			return fmt.Sprintf("No note directories found for case %d (method %s).", caseID, listed.Method), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Note directories for Case %d (method %s):\n", caseID, listed.Method)
		for _, d := range items {
			fmt.Fprintf(&b, "- ID: %s, Name: %s", field(d, directoryIDKeys...), field(d, directoryNameKeys...))
			if count := field(d, noteCountKeys...); !count.IsNil() {
				fmt.Fprintf(&b, ", Notes: %s", count)
			}
			b.WriteString("\n")
			notes, _ := normalize.Nested(d, "notes")
			for _, note := range notes {
				fmt.Fprintf(&b, "  • Note ID: %s, Title: %s\n", field(note, "id", "note_id"), field(note, "title", "note_title"))
			}
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}

// NewNoteDirectory describes a note directory to create.
type NewNoteDirectory struct {
	CaseID            int    `json:"case_id" jsonschema:"case id"`
	Name              string `json:"name" jsonschema:"directory name"`
	ParentDirectoryID *int   `json:"parent_directory_id,omitempty" jsonschema:"parent directory id"`
}

// CreateNoteDirectory creates a note directory. When no known operation
// accepts the request, the answer lists the note operations the session
// offers instead of failing.
func (s *Service) CreateNoteDirectory(ctx context.Context, d NewNoteDirectory) (string, error) {
	return s.run(ctx, "create_note_directory", "creating note directory", func(ctx context.Context, sess outbound.Session) (string, error) {
		action := fmt.Sprintf("Creating note directory '%s' for case %d", d.Name, d.CaseID)
		payloads := []outbound.Args{
			outbound.Args{
				{Key: "cid", Value: d.CaseID},
				{Key: "directory_name", Value: d.Name},
				{Key: "parent_directory_id", Value: opt(d.ParentDirectoryID)},
			}.Compact(),
			outbound.Args{
				{Key: "cid", Value: d.CaseID},
				{Key: "name", Value: d.Name},
				{Key: "parent_directory_id", Value: opt(d.ParentDirectoryID)},
			}.Compact(),
		}

		created, err := normalize.TryOperations(ctx, sess, normalize.Dispatch{
			Action: action, Methods: createDirectoryMethods, Payloads: payloads,
		})
		if err == nil {
			return "Note directory created. ID: " + field(created.Data, directoryIDKeys...).String(), nil
		}
		s.logger.Debug("note directory creation failed", "method", createDirectoryMethods[0], "error", err)

		for _, name := range fallbackDirectoryMethods {
			if _, ok := sess.Method(name); !ok {
				continue
			}
			created, err := normalize.TryOperations(ctx, sess, normalize.Dispatch{
				Action: action, Methods: []string{name}, Payloads: payloads, AllowPositional: true,
			})
			if err != nil {
				s.logger.Debug("note directory creation failed", "method", name, "error", err)
				continue
			}
			id := field(created.Data, "directory_id", "id", "note_directory_id", "dir_id", "group_id")
			return fmt.Sprintf("Note directory created. ID: %s (via %s)", id, created.Method), nil
		}

		var noteMethods []string
		for _, name := range sess.Methods() {
			if strings.Contains(name, "note") {
				noteMethods = append(noteMethods, name)
			}
		}
		return "Note directory creation not available on Case client. Available note-related attributes: " + quoteList(noteMethods), nil
	})
}

// GetNote renders one note.
func (s *Service) GetNote(ctx context.Context, caseID, noteID int) (string, error) {
	return s.run(ctx, "get_note", "getting note", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "get_note", fmt.Sprintf("Getting note %d", noteID), outbound.Args{
			{Key: "note_id", Value: noteID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Note %d (Case %d):\nTitle: %s\nDirectory: %s\nContent:\n%s",
			noteID, caseID,
			field(data, "note_title", "title"),
			field(data, "directory_id", "note_directory_id", "dir_id"),
			field(data, "note_content", "content"),
		), nil
	})
}

// UpdateNote applies a bulk update to a note.
func (s *Service) UpdateNote(ctx context.Context, caseID, noteID int, fields map[string]any) (string, error) {
	return s.run(ctx, "update_note", "updating note", func(ctx context.Context, sess outbound.Session) (string, error) {
		args := withFields(outbound.Args{{Key: "note_id", Value: noteID}, {Key: "cid", Value: caseID}}, fields)
		if _, err := call(ctx, sess, "update_note", fmt.Sprintf("Updating note %d", noteID), args); err != nil {
			return "", err
		}
		return fmt.Sprintf("Note %d updated.", noteID), nil
	})
}

// DeleteNote deletes a note.
func (s *Service) DeleteNote(ctx context.Context, caseID, noteID int) (string, error) {
	return s.run(ctx, "delete_note", "deleting note", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "delete_note", fmt.Sprintf("Deleting note %d", noteID), outbound.Args{
			{Key: "note_id", Value: noteID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Note %d deleted.", noteID), nil
	})
}

// AddNoteComment comments on a note.
func (s *Service) AddNoteComment(ctx context.Context, caseID, noteID int, comment string) (string, error) {
	return s.run(ctx, "add_note_comment", "adding note comment", func(ctx context.Context, sess outbound.Session) (string, error) {
		_, err := call(ctx, sess, "add_note_comment", fmt.Sprintf("Adding comment to note %d", noteID), outbound.Args{
			{Key: "note_id", Value: noteID},
			{Key: "comment", Value: comment},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Comment added to note %d.", noteID), nil
	})
}

// ListNoteComments lists the comments of a note.
func (s *Service) ListNoteComments(ctx context.Context, caseID, noteID int) (string, error) {
	return s.run(ctx, "list_note_comments", "listing note comments", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "list_note_comments", fmt.Sprintf("Listing note comments for note %d", noteID), outbound.Args{
			{Key: "note_id", Value: noteID},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No comments found for note %d.", noteID), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Comments for note %d:\n", noteID)
		for _, c := range items {
			fmt.Fprintf(&b, "- ID: %s, Author: %s, Comment: %s\n",
				field(c, "comment_id", "id"),
				commentAuthor(c, "user", "author", "comment_author"),
				field(c, "comment_content", "comment"),
			)
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}

// SearchNotes searches the notes of a case. An empty term matches
// everything.
func (s *Service) SearchNotes(ctx context.Context, caseID int, term string) (string, error) {
	if term == "" {
		term = "%"
	}
	return s.run(ctx, "search_notes", "searching notes", func(ctx context.Context, sess outbound.Session) (string, error) {
		data, err := call(ctx, sess, "search_notes", fmt.Sprintf("Searching notes for case %d", caseID), outbound.Args{
			{Key: "search_term", Value: term},
			{Key: "cid", Value: caseID},
		})
		if err != nil {
			return "", err
		}
		items := normalize.AsList(data)
		if len(items) == 0 {
			return fmt.Sprintf("No notes matched '%s' in case %d.", term, caseID), nil
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Notes matching '%s' in case %d:\n", term, caseID)
		for _, n := range items {
			fmt.Fprintf(&b, "- ID: %s, Title: %s, Directory: %s\n",
				field(n, "note_id", "id"),
				field(n, "note_title", "title"),
				field(n, "directory_id", "note_directory_id", "dir_id"),
			)
		}
		return strings.TrimRight(b.String(), " \n"), nil
	})
}
