package videos

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mvelasco/clipvault/pkg/enums"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
)

const maxCommentLength = 2000

// AddComment appends one comment to the named video and commits the
// collection. The author label is derived from the session role, never from
// client input.
func (s *Service) AddComment(ctx context.Context, videoID uuid.UUID, text string, role enums.Role) (*Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text required")
	}
	if len(trimmed) > maxCommentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "comment text too long").
			WithDetails(map[string]any{"max_length": maxCommentLength})
	}

	records, err := s.meta.LoadAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load videos")
	}

	var target *Record
	for i := range records {
		if records[i].ID == videoID {
			target = &records[i]
			break
		}
	}
	if target == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "video not found")
	}

	author := guestAuthorLabel
	if role.IsAdmin() {
		author = adminAuthorLabel
	}
	comment := Comment{
		ID:            uuid.New(),
		Author:        author,
		Text:          trimmed,
		CreatedAt:     s.now(),
		PostedAsAdmin: role.IsAdmin(),
	}
	target.Comments = append(target.Comments, comment)

	if err := s.meta.SaveAll(ctx, records); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "save comment")
	}

	if s.logg != nil {
		s.logg.Info(s.withVideoID(ctx, videoID), "comment.added")
	}
	return &comment, nil
}
