package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// ReadWriteConfig carries the connection settings for a replicated
// database pair. Reads go to the replica, writes to the primary; pointing
// both hosts at the same instance works fine for local setups.
type ReadWriteConfig struct {
	ReadHost       string
	ReadPort       string
	WriteHost      string
	WritePort      string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

type ReadWriteClient struct {
	read  *pgxpool.Pool
	write *pgxpool.Pool
}

func NewReadWriteClient(cfg ReadWriteConfig) (*ReadWriteClient, error) {
	read, err := NewPostgresClient(cfg.ReadHost, cfg.ReadPort, cfg.Database, cfg.User, cfg.Password, cfg.MaxConnections)
	if err != nil {
		return nil, err
	}

	write, err := NewPostgresClient(cfg.WriteHost, cfg.WritePort, cfg.Database, cfg.User, cfg.Password, cfg.MaxConnections)
	if err != nil {
		read.Close()
		return nil, err
	}

	return &ReadWriteClient{read: read, write: write}, nil
}

func (rwc *ReadWriteClient) GetReadPool() *pgxpool.Pool {
	return rwc.read
}

func (rwc *ReadWriteClient) GetWritePool() *pgxpool.Pool {
	return rwc.write
}

// Close releases both pools.
func (rwc *ReadWriteClient) Close() {
	rwc.read.Close()
	rwc.write.Close()
}
