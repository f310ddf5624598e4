package domain

import "testing"

func TestTransactionRowValidate(t *testing.T) {
	tests := []struct {
		name     string
		paid     *float64
		received *float64
		wantErr  bool
	}{
		{
			name:     "paid only",
			paid:     Float64(25.00),
			received: nil,
			wantErr:  false,
		},
		{
			name:     "received only",
			paid:     nil,
			received: Float64(100.50),
			wantErr:  false,
		},
		{
			name:     "both nil",
			paid:     nil,
			received: nil,
			wantErr:  false,
		},
		{
			name:     "both zero",
			paid:     Float64(0),
			received: Float64(0),
			wantErr:  false,
		},
		{
			name:     "both non-zero",
			paid:     Float64(25.00),
			received: Float64(25.00),
			wantErr:  true,
		},
		{
			name:     "negative paid",
			paid:     Float64(-5),
			received: nil,
			wantErr:  true,
		},
		{
			name:     "negative received",
			paid:     nil,
			received: Float64(-5),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := &TransactionRow{ID: "tx-1", AmountPaid: tt.paid, AmountReceived: tt.received}
			err := row.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionRowClone(t *testing.T) {
	orig := &TransactionRow{
		ID:             "tx-1",
		BankName:       "First National",
		Date:           "2023-08-15",
		Description:    "COFFEE SHOP",
		Vendor:         VendorUncategorized,
		GLAccount:      VendorUncategorized,
		AmountPaid:     Float64(4.50),
		ConfidenceScore: Float64(0.9),
		CreatedAt:      &Timestamp{Seconds: 1690000000, Nanos: 123},
	}

	clone := orig.Clone()

	*clone.AmountPaid = 99
	clone.CreatedAt.Seconds = 0
	clone.BankName = "Other Bank"

	if *orig.AmountPaid != 4.50 {
		t.Errorf("mutating clone changed original AmountPaid: %v", *orig.AmountPaid)
	}
	if orig.CreatedAt.Seconds != 1690000000 {
		t.Errorf("mutating clone changed original CreatedAt: %+v", orig.CreatedAt)
	}
	if orig.BankName != "First National" {
		t.Errorf("mutating clone changed original BankName: %q", orig.BankName)
	}
}

func TestRepairTimestamp(t *testing.T) {
	original := &Timestamp{Seconds: 1690000000, Nanos: 0}

	tests := []struct {
		name         string
		patch        any
		patchPresent bool
		original     *Timestamp
		want         *Timestamp
	}{
		{
			name:         "patch omits field, restored from original",
			patchPresent: false,
			original:     original,
			want:         &Timestamp{Seconds: 1690000000, Nanos: 0},
		},
		{
			name:         "nanoseconds omitted defaults to zero",
			patch:        map[string]any{"seconds": float64(1690000000)},
			patchPresent: true,
			original:     original,
			want:         &Timestamp{Seconds: 1690000000, Nanos: 0},
		},
		{
			name:         "seconds omitted defaults to zero",
			patch:        map[string]any{"nanoseconds": float64(500)},
			patchPresent: true,
			original:     original,
			want:         &Timestamp{Seconds: 0, Nanos: 500},
		},
		{
			name:         "malformed patch falls back to original",
			patch:        "not-a-timestamp",
			patchPresent: true,
			original:     original,
			want:         &Timestamp{Seconds: 1690000000, Nanos: 0},
		},
		{
			name:         "explicit null falls back to original",
			patch:        nil,
			patchPresent: true,
			original:     original,
			want:         &Timestamp{Seconds: 1690000000, Nanos: 0},
		},
		{
			name:         "malformed patch and no original is absent",
			patch:        map[string]any{"seconds": "soon"},
			patchPresent: true,
			original:     nil,
			want:         nil,
		},
		{
			name:         "full patch wins over original",
			patch:        map[string]any{"seconds": float64(1700000000), "nanoseconds": float64(42)},
			patchPresent: true,
			original:     original,
			want:         &Timestamp{Seconds: 1700000000, Nanos: 42},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RepairTimestamp(tt.patch, tt.patchPresent, tt.original)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("RepairTimestamp() = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("RepairTimestamp() = %+v, want %+v", got, tt.want)
			}
		})
	}

	if original.Seconds != 1690000000 || original.Nanos != 0 {
		t.Errorf("RepairTimestamp mutated the original: %+v", original)
	}
}
