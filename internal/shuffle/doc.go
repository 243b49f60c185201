// Package shuffle picks the next track by weighted random sampling over
// the library's ratings.
//
// Every track gets the weight
//
//	2^floor(self(track) + rating(current → track))
//
// (the second term is dropped when nothing is playing), so each rating
// step doubles a track's chance while no track ever drops to zero. The
// weights are accumulated into a Distribution that is reused for as long
// as the current track stays the same.
//
//	sel := shuffle.NewSelector(lib)
//	next, err := sel.Next(ctx, current)
//
// Next waits until the library has finished loading so it never samples a
// partial registry.
package shuffle
