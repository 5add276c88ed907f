package notes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"notehub/internal/errs"
)

var (
	ErrNoteNotFound = errs.New(errs.NotFound, "note not found")
)

// Store persists notes for the development API.
type Store interface {
	Insert(ctx context.Context, n *Note) error
	FindByID(ctx context.Context, id NoteID) (*Note, error)
	List(ctx context.Context, p ListParams) ([]Note, int64, error)
	Delete(ctx context.Context, id NoteID) (*Note, error)
}

type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Tag       Tag                `bson:"tag"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d noteDoc) note() Note {
	return Note{
		ID:        NoteID(d.ID.Hex()),
		Title:     d.Title,
		Content:   d.Content,
		Tag:       d.Tag,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Repo is the MongoDB Store.
type Repo struct {
	coll *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection("notes")}
}

// EnsureIndexes creates necessary indexes for the notes collection
func (r *Repo) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "tag", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Insert creates a new note and fills in its ID and timestamps.
func (r *Repo) Insert(ctx context.Context, n *Note) error {
	now := time.Now().UTC()
	doc := noteDoc{
		ID:        primitive.NewObjectID(),
		Title:     n.Title,
		Content:   n.Content,
		Tag:       n.Tag,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	*n = doc.note()
	return nil
}

// FindByID retrieves a note by its ID
func (r *Repo) FindByID(ctx context.Context, id NoteID) (*Note, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, ErrNoteNotFound
	}

	var doc noteDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find note %s: %w", id, err)
	}
	n := doc.note()
	return &n, nil
}

// List returns one page of notes, newest first, and the number of notes
// matching the filter.
func (r *Repo) List(ctx context.Context, p ListParams) ([]Note, int64, error) {
	filter := bson.M{}
	if tag := p.Tag.APIValue(); tag != "" {
		filter["tag"] = tag
	}
	if p.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(p.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"content": pattern},
		}
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}

	opts := options.Find().
		SetLimit(int64(p.PerPage)).
		SetSkip(int64((p.Page - 1) * p.PerPage)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode notes: %w", err)
	}
	out := make([]Note, len(docs))
	for i, d := range docs {
		out[i] = d.note()
	}
	return out, total, nil
}

// Delete removes a note by ID and returns it.
func (r *Repo) Delete(ctx context.Context, id NoteID) (*Note, error) {
	oid, err := primitive.ObjectIDFromHex(id.String())
	if err != nil {
		return nil, ErrNoteNotFound
	}

	var doc noteDoc
	err = r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}
	n := doc.note()
	return &n, nil
}
