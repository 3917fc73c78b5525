package appointmentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"denticare/database"
	"denticare/models"
)

// MongoAppointmentRepo is the production AppointmentRepository.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{coll: database.Collection("appointments")}
}

func (r *MongoAppointmentRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("error inserting appointment: %w", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) Update(ctx context.Context, appt *models.Appointment, expectedVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	appt.Version = expectedVersion + 1
	filter := bson.M{"id": appt.ID, "version": expectedVersion}
	res, err := r.coll.ReplaceOne(ctx, filter, appt)
	if err != nil {
		return fmt.Errorf("error updating appointment %s: %w", appt.ID, err)
	}
	if res.MatchedCount == 0 {
		// Either the id is unknown or someone updated it first.
		if _, getErr := r.GetByID(ctx, appt.ID); getErr != nil {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) GetByCode(ctx context.Context, confirmationCode string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"confirmation_code": confirmationCode}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching appointment by code %s: %w", confirmationCode, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) ListActiveByProvider(ctx context.Context, providerID string) ([]models.Appointment, error) {
	filter := bson.M{
		"provider_id": providerID,
		"status":      bson.M{"$ne": models.StatusCancelled},
	}
	return r.list(ctx, filter)
}

func (r *MongoAppointmentRepo) ListByDate(ctx context.Context, day time.Time) ([]models.Appointment, error) {
	dayStart, dayEnd := DayBounds(day)
	filter := bson.M{
		"start":  bson.M{"$gte": dayStart, "$lt": dayEnd},
		"status": bson.M{"$ne": models.StatusCancelled},
	}
	return r.list(ctx, filter)
}

func (r *MongoAppointmentRepo) ListByPhone(ctx context.Context, phone string) ([]models.Appointment, error) {
	filter := bson.M{
		"phone":  phone,
		"status": bson.M{"$ne": models.StatusCancelled},
	}
	return r.list(ctx, filter)
}

func (r *MongoAppointmentRepo) list(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appts []models.Appointment
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("error decoding appointments: %w", err)
	}
	return appts, nil
}

func (r *MongoAppointmentRepo) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dayStart, dayEnd := DayBounds(day)
	filter := bson.M{
		"start":  bson.M{"$gte": dayStart, "$lt": dayEnd},
		"status": bson.M{"$ne": models.StatusCancelled},
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("error counting appointments: %w", err)
	}
	return n, nil
}

func (r *MongoAppointmentRepo) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("error counting appointments: %w", err)
	}
	return n, nil
}
