package mongo

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

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

const collectionPrograms = "programs"

type ProgramRepository struct {
	col *mongo.Collection
}

func NewProgramRepository(db *mongo.Database) *ProgramRepository {
	return &ProgramRepository{col: db.Collection(collectionPrograms)}
}

// programDoc is the stored shape. The id is a Mongo ObjectID assigned on
// insert; the domain exposes it as its hex form.
type programDoc struct {
	ID               primitive.ObjectID       `bson:"_id,omitempty"`
	ProgramName      string                   `bson:"program_name"`
	Email            string                   `bson:"email,omitempty"`
	Image            string                   `bson:"image,omitempty"`
	EducationalAreas []domain.EducationalArea `bson:"educational_areas"`
	Version          int64                    `bson:"version"`
}

func toDoc(p *domain.Program) (*programDoc, error) {
	doc := &programDoc{
		ProgramName:      p.ProgramName,
		Email:            p.Email,
		Image:            p.Image,
		EducationalAreas: p.EducationalAreas,
		Version:          p.Version,
	}
	if p.ProgramID != "" {
		oid, err := primitive.ObjectIDFromHex(p.ProgramID)
		if err != nil {
			return nil, fmt.Errorf("invalid program id %q: %w", p.ProgramID, domain.ErrInvalidProgramData)
		}
		doc.ID = oid
	}
	if doc.EducationalAreas == nil {
		doc.EducationalAreas = []domain.EducationalArea{}
	}
	return doc, nil
}

func (d *programDoc) toDomain() *domain.Program {
	areas := d.EducationalAreas
	if areas == nil {
		areas = []domain.EducationalArea{}
	}
	return &domain.Program{
		ProgramID:        d.ID.Hex(),
		ProgramName:      d.ProgramName,
		Email:            d.Email,
		Image:            d.Image,
		EducationalAreas: areas,
		Version:          d.Version,
	}
}

func (r *ProgramRepository) FindAll(ctx context.Context) ([]domain.Program, error) {
	return r.find(ctx, bson.M{}, nil)
}

func (r *ProgramRepository) FindAllSortedByName(ctx context.Context) ([]domain.Program, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "program_name", Value: 1}})
}

func (r *ProgramRepository) FindByID(ctx context.Context, programID string) (*domain.Program, error) {
	oid, err := primitive.ObjectIDFromHex(programID)
	if err != nil {
		// A malformed id can never match a stored document.
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *ProgramRepository) FindByName(ctx context.Context, name string) (*domain.Program, error) {
	return r.findOne(ctx, bson.M{"program_name": name})
}

// FindByNameContains matches the substring case-insensitively, sorted by
// name so search results are deterministic.
func (r *ProgramRepository) FindByNameContains(ctx context.Context, substring string) ([]domain.Program, error) {
	filter := bson.M{"program_name": bson.M{
		"$regex":   regexp.QuoteMeta(substring),
		"$options": "i",
	}}
	return r.find(ctx, filter, bson.D{{Key: "program_name", Value: 1}})
}

// Save inserts new programs and replaces existing ones under the optimistic
// version guard: the replace filter requires the version loaded with the
// program, so a concurrent save in between surfaces as ErrVersionConflict
// instead of a silent lost update.
func (r *ProgramRepository) Save(ctx context.Context, p *domain.Program) (*domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toDoc(p)
	if err != nil {
		return nil, err
	}

	if doc.ID.IsZero() {
		doc.Version = 1
		res, err := r.col.InsertOne(ctx, doc)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, fmt.Errorf("program %q: %w", p.ProgramName, domain.ErrDuplicateProgram)
			}
			return nil, fmt.Errorf("insert program: %w", err)
		}
		doc.ID = res.InsertedID.(primitive.ObjectID)
		return doc.toDomain(), nil
	}

	loadedVersion := doc.Version
	doc.Version++

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": loadedVersion}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("program %q: %w", p.ProgramName, domain.ErrDuplicateProgram)
		}
		return nil, fmt.Errorf("replace program: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("program %s at version %d: %w", p.ProgramID, loadedVersion, domain.ErrVersionConflict)
	}
	return doc.toDomain(), nil
}

func (r *ProgramRepository) DeleteByID(ctx context.Context, programID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(programID)
	if err != nil {
		return fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
	}
	_, err = r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

func (r *ProgramRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *ProgramRepository) CountWithAreas(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"educational_areas.0": bson.M{"$exists": true}})
}

func (r *ProgramRepository) CountWithoutAreas(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"educational_areas.0": bson.M{"$exists": false}})
}

// TotalAreaCount sums the embedded area lists across all programs.
func (r *ProgramRepository) TotalAreaCount(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$project", Value: bson.M{
			"count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$educational_areas", bson.A{}}}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$count"},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("total area count: %w", err)
	}
	defer cur.Close(ctx)

	var result struct {
		Total int64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&result); err != nil {
			return 0, fmt.Errorf("total area count: %w", err)
		}
	}
	return result.Total, cur.Err()
}

// EnsureIndexes creates the unique indexes backing name and email
// uniqueness. The email index is sparse so absent emails do not collide.
func (r *ProgramRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "program_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ProgramRepository) findOne(ctx context.Context, filter bson.M) (*domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc programDoc
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find program: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProgramRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]domain.Program, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find programs: %w", err)
	}
	defer cur.Close(ctx)

	programs := make([]domain.Program, 0)
	for cur.Next(ctx) {
		var doc programDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode program: %w", err)
		}
		programs = append(programs, *doc.toDomain())
	}
	return programs, cur.Err()
}
