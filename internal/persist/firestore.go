package persist

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/julien-sobczak/the-lessonwriter/pkg/clock"
)

// DefaultCollection is the Firestore collection containing lessons.
const DefaultCollection = "lessons"

// FirestoreSaver saves every lesson as a document of a Firestore collection.
type FirestoreSaver struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSaver creates a saver using the given Firestore client.
func NewFirestoreSaver(client *firestore.Client, collection string) *FirestoreSaver {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreSaver{
		client:     client,
		collection: collection,
	}
}

// NewFirestoreSaverForProject creates a client for the project.
// FIRESTORE_EMULATOR_HOST is honored by the client.
func NewFirestoreSaverForProject(ctx context.Context, projectID string, collection string) (*FirestoreSaver, error) {
	if projectID == "" {
		return nil, fmt.Errorf("missing persist.project")
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("unable to create Firestore client: %w", err)
	}
	return NewFirestoreSaver(client, collection), nil
}

func (s *FirestoreSaver) docRef(lessonID string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(lessonID)
}

func (s *FirestoreSaver) Save(ctx context.Context, lessonID string, content Content) error {
	updatedAt := content.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = clock.Now()
	}
	_, err := s.docRef(lessonID).Set(ctx, map[string]interface{}{
		"html":      content.HTML,
		"markdown":  content.Markdown,
		"updatedAt": updatedAt,
	})
	if err != nil {
		return fmt.Errorf("unable to save lesson %q: %w", lessonID, err)
	}
	return nil
}

func (s *FirestoreSaver) Load(ctx context.Context, lessonID string) (Content, error) {
	snap, err := s.docRef(lessonID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Content{}, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	if err != nil {
		return Content{}, err
	}
	return snapshotToContent(snap), nil
}

// List returns the IDs of the saved lessons.
func (s *FirestoreSaver) List(ctx context.Context) ([]string, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	var result []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		result = append(result, snap.Ref.ID)
	}
	return result, nil
}

// Delete removes a lesson.
func (s *FirestoreSaver) Delete(ctx context.Context, lessonID string) error {
	_, err := s.docRef(lessonID).Delete(ctx)
	return err
}

// Close closes the underlying client.
func (s *FirestoreSaver) Close() error {
	return s.client.Close()
}

func snapshotToContent(snap *firestore.DocumentSnapshot) Content {
	data := snap.Data()
	html, _ := data["html"].(string)
	markdown, _ := data["markdown"].(string)
	updatedAt, _ := data["updatedAt"].(time.Time)
	return Content{
		HTML:      html,
		Markdown:  markdown,
		UpdatedAt: updatedAt,
	}
}
