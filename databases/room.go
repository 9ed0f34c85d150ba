package databases

// go generate: mockery --name RoomDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/streamroom/streamroom-api/models"
)

const roomCollectionName = "rooms"

// RoomDatabase contains the methods to use with the room catalog. The catalog
// and messaging namespaces share room IDs but are populated independently: a
// room may carry chat traffic with no catalog record at all.
type RoomDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Room, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Room, error)
	InsertOne(context.Context, models.Room) error
	UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error)
}

type roomDatabase struct {
	db DatabaseHelper
}

// NewRoomDatabase initializes a new instance of the room catalog with the
// provided db connection
func NewRoomDatabase(db DatabaseHelper) RoomDatabase {
	return &roomDatabase{
		db: db,
	}
}

func (c *roomDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Room, error) {
	room := &models.Room{}
	err := c.db.Collection(roomCollectionName).FindOne(ctx, filter, opts...).Decode(&room)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (c *roomDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Room, error) {
	var rooms []models.Room
	err := c.db.Collection(roomCollectionName).Find(ctx, filter, opts...).Decode(&rooms)
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *roomDatabase) InsertOne(ctx context.Context, room models.Room) error {
	_, err := c.db.Collection(roomCollectionName).InsertOne(ctx, room)
	return err
}

func (c *roomDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}) (int64, error) {
	return c.db.Collection(roomCollectionName).UpdateOne(ctx, filter, update)
}
