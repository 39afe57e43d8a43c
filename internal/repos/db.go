package repos

import (
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	applog "dormstore/internal/log"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" is per connection.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed demo catalog if DB is empty
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	// Ensure users exist (idempotent; safe to run every start)
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Catalog
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  sizes_json TEXT NOT NULL DEFAULT '[]',
  colors_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS packages(
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

-- product_id has no foreign key: a deleted component must stay visible to the stock recompute.
CREATE TABLE IF NOT EXISTS package_items(
  package_id TEXT NOT NULL REFERENCES packages(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  PRIMARY KEY (package_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_package_items_product ON package_items(product_id);

-- Carts
CREATE TABLE IF NOT EXISTS cart_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  owner_key TEXT NOT NULL,                 -- user:<id> | guest:<token>
  product_id TEXT,
  package_id TEXT,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  selected_size TEXT,
  selected_color TEXT,
  variant_key TEXT NOT NULL DEFAULT '',
  item_name TEXT NOT NULL DEFAULT '',
  price_at_add NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  CHECK ((product_id IS NULL) <> (package_id IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_cart_items_owner ON cart_items(owner_key);
CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_product_line
  ON cart_items(owner_key, product_id, variant_key) WHERE product_id IS NOT NULL;
CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_package_line
  ON cart_items(owner_key, package_id) WHERE package_id IS NOT NULL;

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  province TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT '',
  billing_address TEXT NOT NULL DEFAULT '',
  billing_city TEXT NOT NULL DEFAULT '',
  billing_province TEXT NOT NULL DEFAULT '',
  billing_postal_code TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  subtotal NUMERIC NOT NULL,
  tax NUMERIC NOT NULL,
  shipping NUMERIC NOT NULL,
  total NUMERIC NOT NULL,
  order_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (order_status IN ('pending','processing','shipped','delivered','canceled')),
  payment_status TEXT NOT NULL DEFAULT 'paid',
  payment_method TEXT NOT NULL DEFAULT 'balance',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL,
  selected_size TEXT,
  selected_color TEXT
);

CREATE TABLE IF NOT EXISTS order_packages(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  package_id TEXT NOT NULL,
  package_name TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL,
  subtotal NUMERIC NOT NULL
);

-- Prepaid balance ledger
CREATE TABLE IF NOT EXISTS user_balances(
  user_id TEXT PRIMARY KEY,
  balance NUMERIC NOT NULL,
  total_spent NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);

CREATE TABLE IF NOT EXISTS balance_transactions(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('credit','debit')),
  amount NUMERIC NOT NULL,
  balance_after NUMERIC NOT NULL,
  order_id INTEGER REFERENCES orders(id),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_balance_txn_user ON balance_transactions(user_id);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN')),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));

CREATE TABLE IF NOT EXISTS sessions(
  token TEXT PRIMARY KEY,            -- bearer token handed out at login
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	applog.Info(nil, "seed.catalog", nil)

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	tx.MustExec(`INSERT INTO products(id,name,description,price,stock,sizes_json,colors_json) VALUES
	  ('sheets-txl','Twin XL Sheet Set','Fits standard dorm mattresses',34.99,40,'["Twin XL"]','["White","Grey","Navy"]'),
	  ('lamp-clip','Clip-On Desk Lamp','LED lamp with USB port',19.50,25,'[]','["Black","White"]'),
	  ('caddy-shower','Shower Caddy','Mesh caddy with handles',12.00,30,'[]','["Blue","Pink"]'),
	  ('towel-bath','Bath Towel','Cotton bath towel',9.99,60,'[]','["White","Grey"]'),
	  ('fridge-mini','Mini Fridge','3.2 cu ft compact fridge',189.00,5,'[]','[]'),
	  ('hamper-pop','Pop-Up Laundry Hamper','Collapsible hamper',14.25,18,'[]','[]'),
	  ('hoodie-campus','Campus Hoodie','Fleece hoodie',45.00,22,'["S","M","L","XL"]','["Maroon","Black"]')`)

	tx.MustExec(`INSERT INTO packages(id,name,description,price,stock) VALUES
	  ('kit-essentials','Dorm Essentials Kit','Sheets, lamp and shower caddy',59.99,25),
	  ('kit-bath','Bath Bundle','Two towels and a caddy',27.50,30),
	  ('box-movein','Move-In Gift Box','Curated surprise box',24.00,10)`)

	tx.MustExec(`INSERT INTO package_items(package_id,product_id,quantity) VALUES
	  ('kit-essentials','sheets-txl',1),
	  ('kit-essentials','lamp-clip',1),
	  ('kit-essentials','caddy-shower',1),
	  ('kit-bath','towel-bath',2),
	  ('kit-bath','caddy-shower',1)`)

	return tx.Commit()
}

// seedUsers ensures two USERs and one ADMIN exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Email, Name, Role, Hash string
	}
	mk := func(id, email, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
		return u{ID: id, Email: email, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-alice", "alice@dormstore.test", "Alice", "USER", "Passw0rd!"),
		mk("u-bob", "bob@dormstore.test", "Bob", "USER", "Passw0rd!"),
		mk("u-admin", "admin@dormstore.test", "Admin", "ADMIN", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,email,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(email) DO NOTHING
		`, x.ID, x.Email, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
