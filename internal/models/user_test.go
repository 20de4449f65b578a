package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDepartmentFromCourse(t *testing.T) {
	cases := []struct {
		course string
		want   string
	}{
		{"CS201", "CS"},
		{"cs201", "CS"},
		{" math110 ", "MATH"},
		{"PHYS", "PHYS"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, DepartmentFromCourse(tc.course), "course %q", tc.course)
	}
}

func TestHasMatchingProfile(t *testing.T) {
	assert.True(t, (&User{YearOfStudy: YearFirst, Course: "CS101"}).HasMatchingProfile())
	assert.False(t, (&User{YearOfStudy: YearFirst}).HasMatchingProfile())
	assert.False(t, (&User{Course: "CS101"}).HasMatchingProfile())
}
