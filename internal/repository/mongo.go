package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmeshcher/online-shop/internal/model"
)

// MongoRepository хранит пользователей, товары и заказы в MongoDB.
// Заказ хранится одним документом вместе со строками.
type MongoRepository struct {
	client   *mongo.Client
	users    *mongo.Collection
	products *mongo.Collection
	orders   *mongo.Collection
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password"`
	FullName     string    `bson:"name"`
	Street       string    `bson:"street"`
	PostalCode   string    `bson:"postalCode"`
	City         string    `bson:"city"`
	IsAdmin      bool      `bson:"isAdmin"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type productDoc struct {
	ID      string  `bson:"_id"`
	Title   string  `bson:"title"`
	Summary string  `bson:"summary"`
	Price   float64 `bson:"price"`
	Image   string  `bson:"image"`
}

type orderItemDoc struct {
	ProductID string  `bson:"productId"`
	Title     string  `bson:"title"`
	Price     float64 `bson:"price"`
	Quantity  int     `bson:"quantity"`
}

type orderUserDoc struct {
	Email      string `bson:"email"`
	FullName   string `bson:"name"`
	Street     string `bson:"street"`
	PostalCode string `bson:"postalCode"`
	City       string `bson:"city"`
}

type orderDoc struct {
	ID        string         `bson:"_id"`
	UserID    string         `bson:"userId"`
	User      orderUserDoc   `bson:"userData"`
	Items     []orderItemDoc `bson:"productData"`
	Status    string         `bson:"status"`
	CreatedAt time.Time      `bson:"date"`
}

// NewMongoRepository подключается к MongoDB и создаёт необходимые индексы.
func NewMongoRepository(ctx context.Context, uri, dbName string) (*MongoRepository, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping mongo: %v", ErrUnavailable, err)
	}

	db := client.Database(dbName)
	r := &MongoRepository{
		client:   client,
		users:    db.Collection("users"),
		products: db.Collection("products"),
		orders:   db.Collection("orders"),
	}

	if err := r.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	if err := r.seedCatalog(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return r, nil
}

func (r *MongoRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = r.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create orders index: %w", err)
	}
	return nil
}

// seedProducts совпадает с товарами миграции 00002_seed_products.sql.
var seedProducts = []productDoc{
	{ID: "3f2b8f8e-4a53-4f0e-9a8e-1d7f0c6b1a01", Title: "Coffee Mug", Summary: "Stoneware mug, 350 ml", Price: 9.99, Image: "mug.png"},
	{ID: "3f2b8f8e-4a53-4f0e-9a8e-1d7f0c6b1a02", Title: "Notebook", Summary: "A5 dotted notebook", Price: 12.50, Image: "notebook.png"},
	{ID: "3f2b8f8e-4a53-4f0e-9a8e-1d7f0c6b1a03", Title: "Desk Lamp", Summary: "LED lamp with dimmer", Price: 39.00, Image: "lamp.png"},
}

func (r *MongoRepository) seedCatalog(ctx context.Context) error {
	for _, p := range seedProducts {
		_, err := r.products.UpdateOne(ctx,
			bson.M{"_id": p.ID},
			bson.M{"$setOnInsert": bson.M{
				"title":   p.Title,
				"summary": p.Summary,
				"price":   p.Price,
				"image":   p.Image,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}
	return nil
}

// Close отключается от MongoDB.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// CreateUser создаёт нового пользователя и возвращает его идентификатор.
func (r *MongoRepository) CreateUser(ctx context.Context, u *model.User) (string, error) {
	doc := userDoc{
		ID:           uuid.NewString(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FullName:     u.FullName,
		Street:       u.Street,
		PostalCode:   u.PostalCode,
		City:         u.City,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return doc.ID, nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &model.User{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		FullName:     doc.FullName,
		Street:       doc.Street,
		PostalCode:   doc.PostalCode,
		City:         doc.City,
		IsAdmin:      doc.IsAdmin,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func productFromDoc(d productDoc) model.Product {
	return model.Product{ID: d.ID, Title: d.Title, Summary: d.Summary, Price: d.Price, Image: d.Image}
}

// ListProducts возвращает каталог товаров.
func (r *MongoRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	cursor, err := r.products.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]model.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, productFromDoc(d))
	}
	return products, nil
}

// GetProduct возвращает товар по идентификатору.
func (r *MongoRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var doc productDoc
	if err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := productFromDoc(doc)
	return &p, nil
}

// CreateOrder сохраняет заказ одним документом.
func (r *MongoRepository) CreateOrder(ctx context.Context, o *model.Order) (string, error) {
	doc := orderDoc{
		ID:     uuid.NewString(),
		UserID: o.UserID,
		User: orderUserDoc{
			Email:      o.User.Email,
			FullName:   o.User.FullName,
			Street:     o.User.Street,
			PostalCode: o.User.PostalCode,
			City:       o.User.City,
		},
		Items:     make([]orderItemDoc, 0, len(o.Items)),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
	for _, item := range o.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: item.ProductID,
			Title:     item.Title,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	return doc.ID, nil
}

// GetOrdersByUser возвращает заказы пользователя, начиная с самых новых.
func (r *MongoRepository) GetOrdersByUser(ctx context.Context, userID string) ([]model.Order, error) {
	cursor, err := r.orders.Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]model.Order, 0, len(docs))
	for _, d := range docs {
		o := model.Order{
			ID:     d.ID,
			UserID: d.UserID,
			User: model.OrderUser{
				Email:      d.User.Email,
				FullName:   d.User.FullName,
				Street:     d.User.Street,
				PostalCode: d.User.PostalCode,
				City:       d.User.City,
			},
			Items:     make([]model.OrderItem, 0, len(d.Items)),
			Status:    model.OrderStatus(d.Status),
			CreatedAt: d.CreatedAt,
		}
		for _, it := range d.Items {
			o.Items = append(o.Items, model.OrderItem{
				ProductID: it.ProductID,
				Title:     it.Title,
				Price:     it.Price,
				Quantity:  it.Quantity,
			})
		}
		orders = append(orders, o)
	}
	return orders, nil
}
