package pgx

import (
	"context"
	"fmt"

	"github.com/marula-ai/marula/pkg/common"
)

// UpsertPerson persists a person node in the document's relation graph.
// Persons are scoped per document; the same name in two documents yields
// two independent nodes.
func (s *GraphDBStorage) UpsertPerson(ctx context.Context, docID string, person common.Person) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO persons (doc_id, name, role, role_desc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doc_id, name) DO UPDATE SET
			role = EXCLUDED.role,
			role_desc = EXCLUDED.role_desc
	`, docID, person.Name, person.Role, person.RoleDesc)
	if err != nil {
		return fmt.Errorf("failed to upsert person: %w", err)
	}
	return nil
}

// LinkPersons persists a person-to-person relation edge within the
// document's relation graph.
func (s *GraphDBStorage) LinkPersons(ctx context.Context, docID string, relation common.PersonRelation) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO person_relations (doc_id, subject, object, relation, event)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doc_id, subject, object, relation) DO UPDATE SET
			event = EXCLUDED.event
	`, docID, relation.Subject, relation.Object, relation.Relation, relation.Event)
	if err != nil {
		return fmt.Errorf("failed to link persons: %w", err)
	}
	return nil
}
