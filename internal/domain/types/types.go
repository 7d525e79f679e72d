package types

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RiderRole  UserRole = "RIDER"
	DriverRole UserRole = "DRIVER"
	AdminRole  UserRole = "ADMIN"
)

func (r UserRole) IsValid() bool {
	switch r {
	case RiderRole, DriverRole, AdminRole:
		return true
	}
	return false
}

// StatusDelivery decides who receives ride status events
type StatusDelivery string

const (
	// DeliveryBroadcast sends status events to every live connection
	DeliveryBroadcast StatusDelivery = "broadcast"
	// DeliveryTargeted sends them only to the rider and the assigned driver
	DeliveryTargeted StatusDelivery = "targeted"
)

func (d StatusDelivery) IsValid() bool {
	return d == DeliveryBroadcast || d == DeliveryTargeted
}

// StorageDriver selects the ride repository implementation
type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageMemory   StorageDriver = "memory"
)
