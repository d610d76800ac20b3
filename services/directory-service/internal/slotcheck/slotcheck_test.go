package slotcheck

import "testing"

func TestWindow(t *testing.T) {
	tests := []struct {
		name     string
		days     []string
		start    string
		end      string
		duration int
		wantErr  bool
	}{
		{"single day", []string{"monday"}, "09:00", "12:00", 30, false},
		{"multiple days", []string{"monday", "Wednesday", "FRIDAY"}, "08:30", "16:00", 15, false},
		{"duration fills window", []string{"tuesday"}, "09:00", "10:00", 60, false},
		{"no days", nil, "09:00", "12:00", 30, true},
		{"bad day", []string{"funday"}, "09:00", "12:00", 30, true},
		{"duplicate day", []string{"monday", "Monday"}, "09:00", "12:00", 30, true},
		{"start after end", []string{"monday"}, "12:00", "09:00", 30, true},
		{"start equals end", []string{"monday"}, "09:00", "09:00", 30, true},
		{"zero duration", []string{"monday"}, "09:00", "12:00", 0, true},
		{"duration too long", []string{"monday"}, "09:00", "10:00", 61, true},
		{"bad clock", []string{"monday"}, "9am", "12:00", 30, true},
		{"out of range clock", []string{"monday"}, "24:00", "25:00", 30, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Window(tt.days, tt.start, tt.end, tt.duration)
			if (err != nil) != tt.wantErr {
				t.Errorf("Window() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
