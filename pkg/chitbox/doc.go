// Package chitbox lays out the printable die-line of a folded chit box.
//
// A chit box is a lidless tray folded from one sheet: a centre panel forms
// the floor, two strips of side panels on every edge fold up into double
// walls, four corner panels fill the ends of the long walls and four tabs of
// centre artwork fold back inside to line the floor. The whole net is rotated
// by 45 degrees so its diamond outline fits on a portrait page.
//
// # Layout
//
// [GeneratePage] walks the net in a fixed order, composing every panel
// position from translations and rotations on a [canvas.Canvas]:
//
//  1. The centre panel at the origin.
//  2. Two full side pairs above and below, and two more to the left and
//     right (the same routine under a 90 degree rotation).
//  3. The four corner side panels.
//  4. The four inner-bottom tabs.
//  5. The silhouette: four cut lines with a white mask outside each.
//  6. Fold and cut annotations, for square footprints only.
//
// Each step runs between a Save and Restore, so the walk leaves the canvas
// exactly as it found it.
//
// # Documents
//
// [Generator] draws the net twice, at 100% and 95%, on two pages of one
// [canvas.Surface], and closes the surface. Panels are painted by a
// [PanelRenderer]: [ImageRenderer] stretches the configured artwork and
// [PlaceholderRenderer] paints labelled colour blocks for previews.
//
// All sizes are PDF points; use [FromCentimeters] to build [Dimensions].
package chitbox
