package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&WalletEntry{},
		&Product{},
		&BargainRequest{},
		&BargainMessage{},
		&BargainSettings{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&CartItem{},
		&Notification{},
	}
}
