package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yanqian/edusolve/internal/domain/document"
)

type pdfDoc struct {
	ID          primitive.ObjectID        `bson:"_id,omitempty"`
	UserID      string                    `bson:"user_id"`
	Filename    string                    `bson:"filename,omitempty"`
	Content     string                    `bson:"content"`
	Analysis    string                    `bson:"analysis,omitempty"`
	Structured  map[string]map[string]any `bson:"structured_content,omitempty"`
	Suggestions map[string]any            `bson:"real_world_suggestions,omitempty"`
	ObjectKey   string                    `bson:"object_key,omitempty"`
	Mode        string                    `bson:"mode"`
	Timestamp   time.Time                 `bson:"timestamp"`
}

// MongoPDFRepository stores analyzed uploads.
type MongoPDFRepository struct {
	coll *mongo.Collection
}

// NewMongoPDFRepository binds the repository to db.
func NewMongoPDFRepository(db *mongo.Database) *MongoPDFRepository {
	return &MongoPDFRepository{coll: db.Collection(PDFsCollection)}
}

// Insert stores the record and returns the hex ObjectID.
func (r *MongoPDFRepository) Insert(ctx context.Context, record document.PDFRecord) (string, error) {
	res, err := r.coll.InsertOne(ctx, toPDFDoc(record))
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted id type")
	}
	return oid.Hex(), nil
}

// Get returns false for unknown or malformed ids.
func (r *MongoPDFRepository) Get(ctx context.Context, id string) (document.PDFRecord, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return document.PDFRecord{}, false, nil
	}
	var doc pdfDoc
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return document.PDFRecord{}, false, nil
	}
	if err != nil {
		return document.PDFRecord{}, false, err
	}
	return fromPDFDoc(doc), true, nil
}

func toPDFDoc(rec document.PDFRecord) pdfDoc {
	return pdfDoc{
		UserID:      rec.UserID,
		Filename:    rec.Filename,
		Content:     rec.Content,
		Analysis:    rec.Analysis,
		Structured:  rec.Structured,
		Suggestions: rec.Suggestions,
		ObjectKey:   rec.ObjectKey,
		Mode:        string(rec.Mode),
		Timestamp:   rec.Timestamp,
	}
}

func fromPDFDoc(doc pdfDoc) document.PDFRecord {
	return document.PDFRecord{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		Filename:    doc.Filename,
		Content:     doc.Content,
		Analysis:    doc.Analysis,
		Structured:  doc.Structured,
		Suggestions: doc.Suggestions,
		ObjectKey:   doc.ObjectKey,
		Mode:        document.Mode(doc.Mode),
		Timestamp:   doc.Timestamp.UTC(),
	}
}

var _ document.PDFRepository = (*MongoPDFRepository)(nil)
