package mongodb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/mamadbah2/rtm-traders/internal/domain/models"
	"github.com/mamadbah2/rtm-traders/internal/repository"
)

// BackendName is reported by RecordRepository.Backend.
const BackendName = "mongodb"

// Layout selects how records are spread over collections.
type Layout string

const (
	// LayoutMonthly stores each record in a records_YYYY_MM collection picked from its date.
	LayoutMonthly Layout = "monthly"
	// LayoutSingle stores every record in one records collection.
	LayoutSingle Layout = "single"
)

const (
	collectionPrefix = "records"
	monthlyPattern   = `^records_\d{4}_\d{2}$`
	singlePattern    = `^records$`
)

// ParseLayout validates a layout name.
func ParseLayout(value string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(value))) {
	case LayoutMonthly, "":
		return LayoutMonthly, nil
	case LayoutSingle:
		return LayoutSingle, nil
	default:
		return "", fmt.Errorf("unknown mongodb layout %q", value)
	}
}

type recordDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Date          string             `bson:"date"`
	VehicleNumber string             `bson:"vehicleNumber"`
	Destination   string             `bson:"destination"`
	WeightInTons  float64            `bson:"weightInTons"`
	RatePerTon    float64            `bson:"ratePerTon"`
	AmountSpend   float64            `bson:"amountSpend"`
	RateWeFixed   float64            `bson:"rateWeFixed"`
	TotalProfit   float64            `bson:"totalProfit"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// RecordRepository persists records as documents bucketed into collections by month.
type RecordRepository struct {
	db      *mongo.Database
	layout  Layout
	pattern *regexp.Regexp
	logger  *zap.Logger
	now     func() time.Time
}

var _ repository.RecordStore = (*RecordRepository)(nil)

// NewRecordRepository builds a repository on top of the given database.
func NewRecordRepository(db *mongo.Database, layout Layout, logger *zap.Logger) *RecordRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	pattern := monthlyPattern
	if layout == LayoutSingle {
		pattern = singlePattern
	} else {
		layout = LayoutMonthly
	}

	return &RecordRepository{
		db:      db,
		layout:  layout,
		pattern: regexp.MustCompile(pattern),
		logger:  logger,
		now:     time.Now,
	}
}

// Backend implements repository.RecordStore.
func (r *RecordRepository) Backend() string { return BackendName }

// CollectionFor returns the bucket collection name for a record date.
func (r *RecordRepository) CollectionFor(date string) (string, error) {
	if r.layout == LayoutSingle {
		return collectionPrefix, nil
	}
	day, err := models.ParseDay(date)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable date %q", repository.ErrInvalidRecord, date)
	}
	return fmt.Sprintf("%s_%04d_%02d", collectionPrefix, day.Year(), int(day.Month())), nil
}

// List reads every bucket and returns the merged records, newest date first.
func (r *RecordRepository) List(ctx context.Context) ([]models.Record, error) {
	names, err := r.bucketNames(ctx)
	if err != nil {
		return nil, err
	}

	var docs []recordDocument
	for _, name := range names {
		cursor, err := r.db.Collection(name).Find(ctx, bson.D{})
		if err != nil {
			return nil, fmt.Errorf("find records in %s: %w", name, err)
		}

		var batch []recordDocument
		if err := cursor.All(ctx, &batch); err != nil {
			return nil, fmt.Errorf("decode records in %s: %w", name, err)
		}
		docs = append(docs, batch...)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Date != docs[j].Date {
			return docs[i].Date > docs[j].Date
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})

	records := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.toRecord())
	}
	return records, nil
}

// Create inserts the record into the bucket matching its date.
func (r *RecordRepository) Create(ctx context.Context, record models.Record) (models.Record, error) {
	if err := validate(record); err != nil {
		return models.Record{}, err
	}
	name, err := r.CollectionFor(record.Date)
	if err != nil {
		return models.Record{}, err
	}

	now := r.now().UTC()
	doc := fromRecord(record)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.db.Collection(name).InsertOne(ctx, doc); err != nil {
		return models.Record{}, fmt.Errorf("insert record into %s: %w", name, err)
	}

	r.logger.Debug("record inserted", zap.String("collection", name), zap.String("id", doc.ID.Hex()))
	return doc.toRecord(), nil
}

// Update replaces the record in place when it already lives in the bucket of
// its new date. Otherwise the document is moved: it is inserted into the new
// bucket under the same id and the old copy is deleted.
func (r *RecordRepository) Update(ctx context.Context, id string, record models.Record) (models.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Record{}, repository.ErrNotFound
	}
	if err := validate(record); err != nil {
		return models.Record{}, err
	}
	target, err := r.CollectionFor(record.Date)
	if err != nil {
		return models.Record{}, err
	}

	now := r.now().UTC()
	doc := fromRecord(record)
	doc.ID = oid
	doc.UpdatedAt = now

	res, err := r.db.Collection(target).UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": doc.fields()})
	if err != nil {
		return models.Record{}, fmt.Errorf("update record in %s: %w", target, err)
	}
	if res.MatchedCount > 0 {
		return doc.toRecord(), nil
	}

	names, err := r.bucketNames(ctx)
	if err != nil {
		return models.Record{}, err
	}

	for _, name := range names {
		if name == target {
			continue
		}

		var existing recordDocument
		err := r.db.Collection(name).FindOne(ctx, bson.M{"_id": oid}).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return models.Record{}, fmt.Errorf("lookup record in %s: %w", name, err)
		}

		doc.CreatedAt = existing.CreatedAt
		if _, err := r.db.Collection(target).InsertOne(ctx, doc); err != nil {
			return models.Record{}, fmt.Errorf("move record into %s: %w", target, err)
		}
		if _, err := r.db.Collection(name).DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
			r.logger.Error("record copied but old bucket entry not removed",
				zap.String("id", id),
				zap.String("from", name),
				zap.String("to", target),
				zap.Error(err))
			return models.Record{}, fmt.Errorf("remove moved record from %s: %w", name, err)
		}

		r.logger.Info("record moved between buckets",
			zap.String("id", id),
			zap.String("from", name),
			zap.String("to", target))
		return doc.toRecord(), nil
	}

	return models.Record{}, repository.ErrNotFound
}

// Delete removes the record from whichever bucket holds it.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	names, err := r.bucketNames(ctx)
	if err != nil {
		return err
	}

	for _, name := range names {
		res, err := r.db.Collection(name).DeleteOne(ctx, bson.M{"_id": oid})
		if err != nil {
			return fmt.Errorf("delete record from %s: %w", name, err)
		}
		if res.DeletedCount > 0 {
			r.logger.Debug("record deleted", zap.String("collection", name), zap.String("id", id))
			return nil
		}
	}

	return repository.ErrNotFound
}

// Close disconnects the underlying client.
func (r *RecordRepository) Close(ctx context.Context) error {
	return r.db.Client().Disconnect(ctx)
}

func (r *RecordRepository) bucketNames(ctx context.Context) ([]string, error) {
	filter := bson.M{"name": bson.M{"$regex": r.pattern.String()}}
	names, err := r.db.ListCollectionNames(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list record collections: %w", err)
	}

	matched := names[:0]
	for _, name := range names {
		if r.pattern.MatchString(name) {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched, nil
}

func validate(record models.Record) error {
	var missing []string
	for field, value := range map[string]string{
		"date":          record.Date,
		"vehicleNumber": record.VehicleNumber,
		"destination":   record.Destination,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	for field, value := range map[string]models.Amount{
		"weightInTons": record.WeightInTons,
		"ratePerTon":   record.RatePerTon,
		"amountSpend":  record.AmountSpend,
		"rateWeFixed":  record.RateWeFixed,
		"totalProfit":  record.TotalProfit,
	} {
		if value.IsNaN() {
			missing = append(missing, field)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s required", repository.ErrInvalidRecord, strings.Join(missing, ", "))
}

func fromRecord(record models.Record) recordDocument {
	return recordDocument{
		Date:          record.Date,
		VehicleNumber: record.VehicleNumber,
		Destination:   record.Destination,
		WeightInTons:  record.WeightInTons.Float(),
		RatePerTon:    record.RatePerTon.Float(),
		AmountSpend:   record.AmountSpend.Float(),
		RateWeFixed:   record.RateWeFixed.Float(),
		TotalProfit:   record.TotalProfit.Float(),
	}
}

// fields is the $set payload for an in-place update; createdAt is left alone.
func (d recordDocument) fields() bson.M {
	return bson.M{
		"date":          d.Date,
		"vehicleNumber": d.VehicleNumber,
		"destination":   d.Destination,
		"weightInTons":  d.WeightInTons,
		"ratePerTon":    d.RatePerTon,
		"amountSpend":   d.AmountSpend,
		"rateWeFixed":   d.RateWeFixed,
		"totalProfit":   d.TotalProfit,
		"updatedAt":     d.UpdatedAt,
	}
}

// toRecord leaves extraSpend as NaN since the document schema does not carry it.
func (d recordDocument) toRecord() models.Record {
	return models.Record{
		ID:            models.RecordID(d.ID.Hex()),
		Date:          d.Date,
		VehicleNumber: d.VehicleNumber,
		Destination:   d.Destination,
		WeightInTons:  models.Amount(d.WeightInTons),
		RatePerTon:    models.Amount(d.RatePerTon),
		AmountSpend:   models.Amount(d.AmountSpend),
		RateWeFixed:   models.Amount(d.RateWeFixed),
		ExtraSpend:    models.Amount(math.NaN()),
		TotalProfit:   models.Amount(d.TotalProfit),
	}
}
