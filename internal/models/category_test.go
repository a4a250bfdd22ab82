package models

import "testing"

func TestResolveServiceCategory(t *testing.T) {
	tests := []struct {
		in   string
		want ServiceCategory
	}{
		{"Premium Laundry Bundle", ServiceLaundry},
		{"wash & fold", ServiceLaundry},
		{"LAUNDRY", ServiceLaundry},
		{"Exterior Car Wash", ServiceCarWash},
		{"car_wash", ServiceCarWash},
		{"Full Detail Package", ServiceCarWash},
		{"Deep Cleaning", ServiceCleaning},
		{"move-out clean", ServiceCleaning},
		{"  House Cleaning  ", ServiceCleaning},
		{"", ServiceUnknown},
		{"handyman", ServiceUnknown},
	}
	for _, tt := range tests {
		if got := ResolveServiceCategory(tt.in); got != tt.want {
			t.Errorf("ResolveServiceCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
